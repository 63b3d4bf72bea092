package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/engine"
	"github.com/branchledger/dashboard/internal/core/policy"
	"github.com/branchledger/dashboard/internal/core/ports"
	"github.com/branchledger/dashboard/internal/core/session"
	"github.com/branchledger/dashboard/internal/metrics"
)

// RefreshPolicy decides what happens when dashboard loads complete out of order.
type RefreshPolicy string

const (
	// RefreshLastWriteWins applies every completed load; the last one to finish wins.
	RefreshLastWriteWins RefreshPolicy = "last_write_wins"
	// RefreshDiscardStale drops a load that finishes after a later-issued one was applied.
	RefreshDiscardStale RefreshPolicy = "discard_stale"
)

// ParseRefreshPolicy accepts the configured policy name; empty means last-write-wins.
func ParseRefreshPolicy(s string) (RefreshPolicy, error) {
	switch p := RefreshPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", RefreshLastWriteWins:
		return RefreshLastWriteWins, nil
	case RefreshDiscardStale:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown refresh policy %q", domain.ErrInvalidInput, s)
	}
}

// Options tunes a DashboardService.
type Options struct {
	PageSize      int
	RefreshPolicy RefreshPolicy
}

// DashboardService orchestrates the identity, ledger and reporting services on
// behalf of the signed-in operator and owns the derived dashboard state.
//
// Network calls never run under mu; state is committed under mu only after
// every request a step depends on has succeeded.
type DashboardService struct {
	session   *session.Store
	identity  ports.IdentityClient
	ledger    ports.LedgerClient
	reporting ports.ReportingClient
	refresh   RefreshPolicy
	pageSize  int
	log       zerolog.Logger

	loadSeq atomic.Uint64

	mu         sync.Mutex
	engine     *engine.Engine
	balance    *domain.Balance
	selected   domain.BranchScope
	scope      domain.BranchScope
	loaded     bool
	users      []domain.User
	appliedSeq uint64
}

func NewDashboardService(
	store *session.Store,
	identity ports.IdentityClient,
	ledger ports.LedgerClient,
	reporting ports.ReportingClient,
	opts Options,
	log zerolog.Logger,
) *DashboardService {
	if opts.RefreshPolicy == "" {
		opts.RefreshPolicy = RefreshLastWriteWins
	}
	s := &DashboardService{
		session:   store,
		identity:  identity,
		ledger:    ledger,
		reporting: reporting,
		refresh:   opts.RefreshPolicy,
		pageSize:  opts.PageSize,
		log:       log,
	}
	s.resetLocked()
	return s
}

// View returns the current dashboard without touching the network.
func (s *DashboardService) View(_ context.Context) (*ports.DashboardView, error) {
	identity, err := s.session.Identity()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(identity), nil
}

// LoadDashboardData fetches balance and operations concurrently for the
// effective branch scope. Both must succeed; on any failure nothing changes.
func (s *DashboardService) LoadDashboardData(ctx context.Context) (*ports.DashboardView, error) {
	token, identity, err := s.session.Credentials()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	requested := s.selected
	s.mu.Unlock()

	scope := policy.EffectiveBranchScope(identity, requested)
	seq := s.loadSeq.Add(1)

	var (
		balance domain.Balance
		records []domain.OperationRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.ledger.Balance(gctx, token, scope)
		if err != nil {
			return fmt.Errorf("load balance: %w", err)
		}
		balance = b
		return nil
	})
	g.Go(func() error {
		ops, err := s.ledger.Operations(gctx, token, scope)
		if err != nil {
			return fmt.Errorf("load operations: %w", err)
		}
		records = ops
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.DashboardLoadsTotal.WithLabelValues("failed").Inc()
		s.log.Error().Err(err).Str("scope", scope.String()).Uint64("seq", seq).Msg("dashboard load failed")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The operator may have signed out while the requests were in flight.
	if current, err := s.session.Identity(); err != nil || current != identity {
		return nil, domain.ErrAuthRequired
	}

	if s.refresh == RefreshDiscardStale && seq < s.appliedSeq {
		metrics.DashboardLoadsTotal.WithLabelValues("stale").Inc()
		s.log.Debug().Uint64("seq", seq).Uint64("applied_seq", s.appliedSeq).Msg("stale dashboard load discarded")
		return s.viewLocked(identity), nil
	}

	s.appliedSeq = max(s.appliedSeq, seq)
	s.balance = &balance
	s.scope = scope
	s.loaded = true
	s.engine.SetRecords(records)

	metrics.DashboardLoadsTotal.WithLabelValues("applied").Inc()
	metrics.OperationsLoaded.Set(float64(len(records)))
	s.log.Info().
		Str("scope", scope.String()).
		Int("operations", len(records)).
		Uint64("seq", seq).
		Msg("dashboard loaded")

	return s.viewLocked(identity), nil
}

// SelectBranch records the operator's branch filter and reloads. The policy
// still decides the scope actually applied, so a pinned role is unaffected.
func (s *DashboardService) SelectBranch(ctx context.Context, requested domain.BranchScope) (*ports.DashboardView, error) {
	if _, err := s.session.Identity(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.selected = domain.ScopeOf(int(requested))
	s.mu.Unlock()
	return s.LoadDashboardData(ctx)
}

func (s *DashboardService) Search(_ context.Context, text string) (*ports.DashboardView, error) {
	return s.mutateView(func(e *engine.Engine) { e.SetSearch(text) })
}

func (s *DashboardService) Sort(_ context.Context, key engine.SortKey) (*ports.DashboardView, error) {
	return s.mutateView(func(e *engine.Engine) { e.SetSort(key) })
}

func (s *DashboardService) GoToPage(_ context.Context, n int) (*ports.DashboardView, error) {
	return s.mutateView(func(e *engine.Engine) { e.SetPage(n) })
}

func (s *DashboardService) NextPage(_ context.Context) (*ports.DashboardView, error) {
	return s.mutateView((*engine.Engine).NextPage)
}

func (s *DashboardService) PrevPage(_ context.Context) (*ports.DashboardView, error) {
	return s.mutateView((*engine.Engine).PrevPage)
}

// CreateOperation posts a new ledger operation and then reloads the whole
// dashboard once; the created record is never patched in locally.
func (s *DashboardService) CreateOperation(ctx context.Context, in ports.CreateOperationInput) (*ports.DashboardView, error) {
	token, identity, err := s.session.Credentials()
	if err != nil {
		return nil, err
	}
	caps := policy.For(identity.Role)
	if !caps.CanCreateOperation {
		return nil, fmt.Errorf("create operation: %w", domain.ErrForbidden)
	}

	branchID, _ := caps.EffectiveBranchScope(identity, domain.ScopeOf(in.BranchID)).BranchID()
	created, err := s.ledger.CreateOperation(ctx, token, domain.NewOperation{
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		BranchID:    branchID,
	})
	if err != nil {
		metrics.WritesTotal.WithLabelValues("create_operation", "error").Inc()
		return nil, fmt.Errorf("create operation: %w", err)
	}
	metrics.WritesTotal.WithLabelValues("create_operation", "ok").Inc()
	s.log.Info().Int("operation_id", created.ID).Int("branch_id", branchID).Str("type", string(in.Type)).Msg("operation created")

	view, err := s.LoadDashboardData(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload after create operation: %w", err)
	}
	return view, nil
}

func (s *DashboardService) mutateView(fn func(*engine.Engine)) (*ports.DashboardView, error) {
	identity, err := s.session.Identity()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
	return s.viewLocked(identity), nil
}

func (s *DashboardService) viewLocked(identity domain.Identity) *ports.DashboardView {
	caps := policy.For(identity.Role)
	scope := s.scope
	if !s.loaded {
		scope = caps.EffectiveBranchScope(identity, s.selected)
	}

	var balance *domain.Balance
	if s.balance != nil {
		b := *s.balance
		balance = &b
	}

	return &ports.DashboardView{
		Identity:     identity,
		Capabilities: caps,
		Scope:        scope,
		Balance:      balance,
		View:         s.engine.ViewState(),
		Page:         s.engine.CurrentPage(),
		HasPrev:      s.engine.HasPrev(),
		HasNext:      s.engine.HasNext(),
	}
}

// resetLocked drops everything derived from a previous session.
func (s *DashboardService) resetLocked() {
	s.engine = engine.New(s.pageSize)
	s.balance = nil
	s.selected = domain.AllBranches
	s.scope = domain.AllBranches
	s.loaded = false
	s.users = nil
	s.appliedSeq = s.loadSeq.Load()
	metrics.OperationsLoaded.Set(0)
}
