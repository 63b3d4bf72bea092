package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/branchledger/dashboard/internal/core/domain"
)

// LedgerClient talks to the ledger service.
type LedgerClient struct {
	*client
}

func NewLedgerClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*LedgerClient, error) {
	c, err := newClient("ledger", baseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	return &LedgerClient{client: c}, nil
}

// operationRequest sends the amount as a JSON number with the decimal's exact digits.
type operationRequest struct {
	Type        domain.OperationType `json:"type"`
	Amount      json.Number          `json:"amount"`
	Description string               `json:"description"`
	BranchID    int                  `json:"branch_id"`
}

func (c *LedgerClient) Balance(ctx context.Context, token string, scope domain.BranchScope) (domain.Balance, error) {
	var out domain.Balance
	if err := c.doJSON(ctx, http.MethodGet, "/balance", token, scopeQuery(scope), nil, &out); err != nil {
		return domain.Balance{}, err
	}
	return out, nil
}

func (c *LedgerClient) Operations(ctx context.Context, token string, scope domain.BranchScope) ([]domain.OperationRecord, error) {
	var out []domain.OperationRecord
	if err := c.doJSON(ctx, http.MethodGet, "/operations", token, scopeQuery(scope), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) CreateOperation(ctx context.Context, token string, in domain.NewOperation) (domain.OperationRecord, error) {
	req := operationRequest{
		Type:        in.Type,
		Amount:      json.Number(in.Amount.String()),
		Description: in.Description,
		BranchID:    in.BranchID,
	}
	var out domain.OperationRecord
	if err := c.doJSON(ctx, http.MethodPost, "/operations", token, nil, req, &out); err != nil {
		return domain.OperationRecord{}, err
	}
	return out, nil
}
