package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/engine"
	"github.com/branchledger/dashboard/internal/core/policy"
)

// DashboardView is everything a renderer needs to draw the dashboard.
type DashboardView struct {
	Identity     domain.Identity
	Capabilities policy.Capabilities
	// Scope is the branch filter applied to the last load, after policy.
	Scope   domain.BranchScope
	Balance *domain.Balance // nil until the first successful load
	View    engine.ViewState
	Page    engine.Page
	HasPrev bool
	HasNext bool
}

// CreateOperationInput is the operator's operation form.
type CreateOperationInput struct {
	Type        domain.OperationType
	Amount      decimal.Decimal
	Description string
	BranchID    int
}

// AuthService signs the operator in and out.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*DashboardView, error)
	Logout(ctx context.Context) error
}

// DashboardService drives the operations view and the ledger writes.
type DashboardService interface {
	View(ctx context.Context) (*DashboardView, error)
	LoadDashboardData(ctx context.Context) (*DashboardView, error)
	SelectBranch(ctx context.Context, requested domain.BranchScope) (*DashboardView, error)
	Search(ctx context.Context, text string) (*DashboardView, error)
	Sort(ctx context.Context, key engine.SortKey) (*DashboardView, error)
	GoToPage(ctx context.Context, n int) (*DashboardView, error)
	NextPage(ctx context.Context) (*DashboardView, error)
	PrevPage(ctx context.Context) (*DashboardView, error)
	CreateOperation(ctx context.Context, in CreateOperationInput) (*DashboardView, error)
}

// UserAdminService is the admin panel.
type UserAdminService interface {
	LoadUsers(ctx context.Context) ([]domain.User, error)
	SaveUser(ctx context.Context, in domain.UserInput) ([]domain.User, error)
	DeleteUser(ctx context.Context, id int) ([]domain.User, error)
}

// ReportService exposes summaries and downloads.
type ReportService interface {
	Summary(ctx context.Context, q domain.ReportQuery) (domain.Summary, error)
	Export(ctx context.Context, format domain.ExportFormat, q domain.ReportQuery) (domain.Export, error)
}
