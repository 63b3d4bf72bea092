package ports

import (
	"context"

	"github.com/branchledger/dashboard/internal/core/domain"
)

// Every upstream call takes the bearer token explicitly; callers read it from
// the session store at the orchestration boundary.

// IdentityClient talks to the identity service (login, current user, user CRUD).
type IdentityClient interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (domain.Identity, error)
	ListUsers(ctx context.Context, token string) ([]domain.User, error)
	CreateUser(ctx context.Context, token string, in domain.UserInput) (domain.User, error)
	UpdateUser(ctx context.Context, token string, in domain.UserInput) (domain.User, error)
	DeleteUser(ctx context.Context, token string, id int) error
}

// LedgerClient talks to the ledger service (operations and balance).
type LedgerClient interface {
	Balance(ctx context.Context, token string, scope domain.BranchScope) (domain.Balance, error)
	Operations(ctx context.Context, token string, scope domain.BranchScope) ([]domain.OperationRecord, error)
	CreateOperation(ctx context.Context, token string, in domain.NewOperation) (domain.OperationRecord, error)
}

// ReportingClient talks to the reporting service (summary and downloads).
type ReportingClient interface {
	Summary(ctx context.Context, token string, q domain.ReportQuery) (domain.Summary, error)
	Export(ctx context.Context, token string, format domain.ExportFormat, q domain.ReportQuery) (domain.Export, error)
}
