package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/engine"
	"github.com/branchledger/dashboard/internal/core/ports"
	"github.com/branchledger/dashboard/internal/core/session"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type memStorage struct {
	mu     sync.Mutex
	values map[string]string
	onSet  func(key string)
}

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	hook := m.onSet
	m.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	return nil
}

func (m *memStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type stubLedger struct {
	mu sync.Mutex

	balanceFn    func(ctx context.Context, scope domain.BranchScope) (domain.Balance, error)
	operationsFn func(ctx context.Context, scope domain.BranchScope) ([]domain.OperationRecord, error)
	createErr    error

	balanceScopes    []domain.BranchScope
	operationsScopes []domain.BranchScope
	created          []domain.NewOperation
}

func (l *stubLedger) Balance(ctx context.Context, _ string, scope domain.BranchScope) (domain.Balance, error) {
	l.mu.Lock()
	l.balanceScopes = append(l.balanceScopes, scope)
	fn := l.balanceFn
	l.mu.Unlock()
	if fn != nil {
		return fn(ctx, scope)
	}
	return domain.Balance{TotalBalance: decimal.NewFromInt(100), BranchID: int(scope)}, nil
}

func (l *stubLedger) Operations(ctx context.Context, _ string, scope domain.BranchScope) ([]domain.OperationRecord, error) {
	l.mu.Lock()
	l.operationsScopes = append(l.operationsScopes, scope)
	fn := l.operationsFn
	l.mu.Unlock()
	if fn != nil {
		return fn(ctx, scope)
	}
	return records(3), nil
}

func (l *stubLedger) CreateOperation(_ context.Context, _ string, in domain.NewOperation) (domain.OperationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.createErr != nil {
		return domain.OperationRecord{}, l.createErr
	}
	l.created = append(l.created, in)
	return domain.OperationRecord{ID: len(l.created), Type: in.Type, Amount: in.Amount, BranchID: in.BranchID}, nil
}

func (l *stubLedger) loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.balanceScopes)
}

type stubIdentity struct {
	token    string
	me       domain.Identity
	loginErr error
	meErr    error

	users     []domain.User
	listErr   error
	listCalls int
	created   []domain.UserInput
	updated   []domain.UserInput
	deleted   []int
}

func (s *stubIdentity) Login(_ context.Context, _, _ string) (string, error) {
	return s.token, s.loginErr
}

func (s *stubIdentity) Me(_ context.Context, _ string) (domain.Identity, error) {
	return s.me, s.meErr
}

func (s *stubIdentity) ListUsers(_ context.Context, _ string) ([]domain.User, error) {
	s.listCalls++
	return s.users, s.listErr
}

func (s *stubIdentity) CreateUser(_ context.Context, _ string, in domain.UserInput) (domain.User, error) {
	s.created = append(s.created, in)
	return domain.User{ID: 99, Email: in.Email, Role: in.Role}, nil
}

func (s *stubIdentity) UpdateUser(_ context.Context, _ string, in domain.UserInput) (domain.User, error) {
	s.updated = append(s.updated, in)
	return domain.User{ID: in.ID, Email: in.Email, Role: in.Role}, nil
}

func (s *stubIdentity) DeleteUser(_ context.Context, _ string, id int) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubReporting struct {
	queries []domain.ReportQuery
	formats []domain.ExportFormat
}

func (r *stubReporting) Summary(_ context.Context, _ string, q domain.ReportQuery) (domain.Summary, error) {
	r.queries = append(r.queries, q)
	return domain.Summary{Count: 2}, nil
}

func (r *stubReporting) Export(_ context.Context, _ string, format domain.ExportFormat, q domain.ReportQuery) (domain.Export, error) {
	r.queries = append(r.queries, q)
	r.formats = append(r.formats, format)
	return domain.Export{Filename: "operations_export.csv", ContentType: "text/csv", Body: []byte("id\n")}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	adminID      = domain.Identity{ID: 1, Email: "root@example.com", Role: domain.RoleSystemAdmin}
	managerID    = domain.Identity{ID: 2, Email: "boss@example.com", Role: domain.RoleManager}
	accountantID = domain.Identity{ID: 3, Email: "books@example.com", Role: domain.RoleAccountant, BranchID: 2}
)

func testToken(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func records(n int) []domain.OperationRecord {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.OperationRecord, n)
	for i := range out {
		out[i] = domain.OperationRecord{
			ID:          i + 1,
			Type:        domain.OperationIncome,
			Amount:      decimal.NewFromInt(int64(10 * (i + 1))),
			Description: "op " + strconv.Itoa(i+1),
			CreatedAt:   base.AddDate(0, 0, i),
		}
	}
	return out
}

type fixture struct {
	svc       *DashboardService
	store     *session.Store
	storage   *memStorage
	identity  *stubIdentity
	ledger    *stubLedger
	reporting *stubReporting
}

func newFixture(t *testing.T, who *domain.Identity, policy RefreshPolicy) *fixture {
	t.Helper()
	storage := &memStorage{values: map[string]string{}}
	store := session.NewStore(storage, zerolog.Nop())
	if who != nil {
		if err := store.Begin(context.Background(), testToken(t), *who); err != nil {
			t.Fatalf("begin session: %v", err)
		}
	}
	f := &fixture{
		store:     store,
		storage:   storage,
		identity:  &stubIdentity{},
		ledger:    &stubLedger{},
		reporting: &stubReporting{},
	}
	f.svc = NewDashboardService(store, f.identity, f.ledger, f.reporting,
		Options{PageSize: engine.DefaultPageSize, RefreshPolicy: policy}, zerolog.Nop())
	return f
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestParseRefreshPolicy(t *testing.T) {
	for in, want := range map[string]RefreshPolicy{
		"":                RefreshLastWriteWins,
		"last_write_wins": RefreshLastWriteWins,
		"DISCARD_STALE":   RefreshDiscardStale,
	} {
		got, err := ParseRefreshPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseRefreshPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseRefreshPolicy("newest"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadDashboardData_Unauthenticated(t *testing.T) {
	f := newFixture(t, nil, RefreshLastWriteWins)

	if _, err := f.svc.LoadDashboardData(context.Background()); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if f.ledger.loads() != 0 {
		t.Fatal("no request may be sent without a session")
	}
}

func TestLoadDashboardData_AppliesBothResults(t *testing.T) {
	f := newFixture(t, &adminID, RefreshLastWriteWins)

	view, err := f.svc.LoadDashboardData(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if view.Balance == nil || !view.Balance.TotalBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected balance: %+v", view.Balance)
	}
	if view.Page.FilteredCount != 3 || len(view.Page.Items) != 3 {
		t.Errorf("unexpected page: %+v", view.Page)
	}
	if !view.Scope.IsAll() {
		t.Errorf("admin without a selection must see all branches, got %s", view.Scope)
	}
}

// Balance fails while operations succeed: nothing may change.
func TestLoadDashboardData_FailureIsAtomic(t *testing.T) {
	f := newFixture(t, &adminID, RefreshLastWriteWins)
	if _, err := f.svc.LoadDashboardData(context.Background()); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	f.ledger.balanceFn = func(context.Context, domain.BranchScope) (domain.Balance, error) {
		return domain.Balance{}, &domain.UpstreamError{Service: "ledger", StatusCode: http.StatusInternalServerError, Body: "boom"}
	}
	f.ledger.operationsFn = func(context.Context, domain.BranchScope) ([]domain.OperationRecord, error) {
		return records(9), nil
	}

	_, err := f.svc.LoadDashboardData(context.Background())
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.Body != "boom" {
		t.Fatalf("expected upstream error with body, got %v", err)
	}

	view, err := f.svc.View(context.Background())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !view.Balance.TotalBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance changed after failed load: %s", view.Balance.TotalBalance)
	}
	if view.Page.FilteredCount != 3 {
		t.Errorf("operations changed after failed load: %d", view.Page.FilteredCount)
	}
}

func TestLoadDashboardData_Upstream401IsAuthRequired(t *testing.T) {
	f := newFixture(t, &adminID, RefreshLastWriteWins)
	f.ledger.operationsFn = func(context.Context, domain.BranchScope) ([]domain.OperationRecord, error) {
		return nil, &domain.UpstreamError{Service: "ledger", StatusCode: http.StatusUnauthorized}
	}

	if _, err := f.svc.LoadDashboardData(context.Background()); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestSelectBranch_AccountantIsPinned(t *testing.T) {
	f := newFixture(t, &accountantID, RefreshLastWriteWins)

	view, err := f.svc.SelectBranch(context.Background(), domain.BranchScope(5))
	if err != nil {
		t.Fatalf("select branch: %v", err)
	}
	if view.Scope != domain.BranchScope(2) {
		t.Errorf("expected pinned scope 2, got %s", view.Scope)
	}
	for _, s := range append(f.ledger.balanceScopes, f.ledger.operationsScopes...) {
		if s != domain.BranchScope(2) {
			t.Errorf("request left the pinned branch: %s", s)
		}
	}
}

func TestSelectBranch_ManagerFilters(t *testing.T) {
	f := newFixture(t, &managerID, RefreshLastWriteWins)

	view, err := f.svc.SelectBranch(context.Background(), domain.BranchScope(5))
	if err != nil {
		t.Fatalf("select branch: %v", err)
	}
	if view.Scope != domain.BranchScope(5) {
		t.Errorf("expected scope 5, got %s", view.Scope)
	}

	view, err = f.svc.SelectBranch(context.Background(), domain.AllBranches)
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	if !view.Scope.IsAll() {
		t.Errorf("expected all branches, got %s", view.Scope)
	}
}

func TestCreateOperation_ManagerForbidden(t *testing.T) {
	f := newFixture(t, &managerID, RefreshLastWriteWins)

	_, err := f.svc.CreateOperation(context.Background(), ports.CreateOperationInput{
		Type: domain.OperationIncome, Amount: decimal.NewFromInt(5), Description: "x",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(f.ledger.created) != 0 || f.ledger.loads() != 0 {
		t.Fatal("forbidden create must not reach the network")
	}
}

// Create triggers exactly one reload and the view returns to page 1.
func TestCreateOperation_ReloadsOnce(t *testing.T) {
	f := newFixture(t, &accountantID, RefreshLastWriteWins)
	f.ledger.operationsFn = func(context.Context, domain.BranchScope) ([]domain.OperationRecord, error) {
		return records(12), nil
	}
	if _, err := f.svc.LoadDashboardData(context.Background()); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	if _, err := f.svc.GoToPage(context.Background(), 3); err != nil {
		t.Fatalf("go to page: %v", err)
	}

	view, err := f.svc.CreateOperation(context.Background(), ports.CreateOperationInput{
		Type:        domain.OperationExpense,
		Amount:      decimal.RequireFromString("12.50"),
		Description: "rent",
		BranchID:    9,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := f.ledger.loads(); got != 2 {
		t.Errorf("expected exactly one reload after create, got %d loads in total", got)
	}
	if len(f.ledger.created) != 1 || f.ledger.created[0].BranchID != 2 {
		t.Errorf("accountant create must post the pinned branch, got %+v", f.ledger.created)
	}
	if view.Page.PageNumber != 1 {
		t.Errorf("expected page 1 after reload, got %d", view.Page.PageNumber)
	}
}

func TestCreateOperation_AdminUsesRequestedBranch(t *testing.T) {
	f := newFixture(t, &adminID, RefreshLastWriteWins)

	if _, err := f.svc.CreateOperation(context.Background(), ports.CreateOperationInput{
		Type: domain.OperationIncome, Amount: decimal.NewFromInt(1), Description: "sale", BranchID: 4,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.ledger.created[0].BranchID != 4 {
		t.Errorf("expected branch 4, got %d", f.ledger.created[0].BranchID)
	}
}

func TestCreateOperation_FailureSkipsReload(t *testing.T) {
	f := newFixture(t, &adminID, RefreshLastWriteWins)
	f.ledger.createErr = &domain.UpstreamError{Service: "ledger", StatusCode: http.StatusBadRequest, Body: "amount must be positive"}

	_, err := f.svc.CreateOperation(context.Background(), ports.CreateOperationInput{Type: domain.OperationIncome})
	if err == nil {
		t.Fatal("expected error")
	}
	if f.ledger.loads() != 0 {
		t.Error("failed create must not reload")
	}
}

func TestViewNavigation(t *testing.T) {
	f := newFixture(t, &adminID, RefreshLastWriteWins)
	f.ledger.operationsFn = func(context.Context, domain.BranchScope) ([]domain.OperationRecord, error) {
		return records(12), nil
	}
	ctx := context.Background()
	if _, err := f.svc.LoadDashboardData(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	view, _ := f.svc.NextPage(ctx)
	if view.Page.PageNumber != 2 || !view.HasPrev || !view.HasNext {
		t.Fatalf("unexpected page after next: %+v", view.Page)
	}
	view, _ = f.svc.Sort(ctx, engine.SortAmountAsc)
	if view.Page.PageNumber != 1 || !view.Page.Items[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("sort must reset to page 1 ascending, got %+v", view.Page)
	}
	view, _ = f.svc.Search(ctx, "OP 1")
	if view.Page.FilteredCount != 4 { // op 1, op 10, op 11, op 12
		t.Fatalf("expected 4 matches, got %d", view.Page.FilteredCount)
	}
	view, _ = f.svc.PrevPage(ctx)
	if view.Page.PageNumber != 1 {
		t.Fatalf("prev on first page must stay, got %d", view.Page.PageNumber)
	}
}

// slowFirstLoad blocks the first operations call until release is closed and
// returns marker records so the test can tell which load was applied.
func slowFirstLoad(entered, release chan struct{}) func(context.Context, domain.BranchScope) ([]domain.OperationRecord, error) {
	var once sync.Once
	var mu sync.Mutex
	calls := 0
	return func(context.Context, domain.BranchScope) ([]domain.OperationRecord, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			once.Do(func() { close(entered) })
			<-release
			return records(1), nil
		}
		return records(7), nil
	}
}

func runOutOfOrderLoads(t *testing.T, f *fixture) *ports.DashboardView {
	t.Helper()
	entered, release := make(chan struct{}), make(chan struct{})
	f.ledger.operationsFn = slowFirstLoad(entered, release)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.LoadDashboardData(context.Background())
		done <- err
	}()
	<-entered

	if _, err := f.svc.LoadDashboardData(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first load: %v", err)
	}

	view, err := f.svc.View(context.Background())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return view
}

func TestRefreshPolicy_DiscardStale(t *testing.T) {
	f := newFixture(t, &adminID, RefreshDiscardStale)

	view := runOutOfOrderLoads(t, f)
	if view.Page.FilteredCount != 7 {
		t.Errorf("stale load must be discarded, got %d records", view.Page.FilteredCount)
	}
}

func TestRefreshPolicy_LastWriteWins(t *testing.T) {
	f := newFixture(t, &adminID, RefreshLastWriteWins)

	view := runOutOfOrderLoads(t, f)
	if view.Page.FilteredCount != 1 {
		t.Errorf("last completed load must win, got %d records", view.Page.FilteredCount)
	}
}

func TestSummaryAndExport_UseEffectiveScope(t *testing.T) {
	f := newFixture(t, &accountantID, RefreshLastWriteWins)
	ctx := context.Background()

	if _, err := f.svc.Summary(ctx, domain.ReportQuery{Branch: domain.AllBranches, Limit: 5}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	exp, err := f.svc.Export(ctx, domain.ExportCSV, domain.ReportQuery{Branch: 7})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exp.Filename != "operations_export.csv" {
		t.Errorf("unexpected filename %q", exp.Filename)
	}
	for _, q := range f.reporting.queries {
		if q.Branch != domain.BranchScope(2) {
			t.Errorf("report left the pinned branch: %+v", q)
		}
	}

	if _, err := f.svc.Export(ctx, domain.ExportFormat("xlsx"), domain.ReportQuery{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown format, got %v", err)
	}
}
