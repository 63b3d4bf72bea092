package handler

import (
	"time"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/engine"
	"github.com/branchledger/dashboard/internal/core/ports"
)

const emptyPageMessage = "No operations"

// --- Service output → Response ---

func toDashboardResponse(v *ports.DashboardView) dashboardResponse {
	branchID, _ := v.Scope.BranchID()
	resp := dashboardResponse{
		User:         toIdentityResponse(v.Identity),
		Capabilities: v.Capabilities,
		Scope:        scopeResponse{All: v.Scope.IsAll(), BranchID: branchID},
		View: viewStateResponse{
			Search:   v.View.SearchText,
			Sort:     string(v.View.SortKey),
			PageSize: v.View.PageSize,
		},
		Page: pageResponse{
			Items:         make([]operationResponse, 0, len(v.Page.Items)),
			PageNumber:    v.Page.PageNumber,
			TotalPages:    v.Page.TotalPages,
			FilteredCount: v.Page.FilteredCount,
			HasPrev:       v.HasPrev,
			HasNext:       v.HasNext,
			Empty:         v.Page.Empty(),
		},
	}
	for _, op := range v.Page.Items {
		resp.Page.Items = append(resp.Page.Items, toOperationResponse(op))
	}
	if resp.Page.Empty {
		resp.Page.Message = emptyPageMessage
	}
	if v.Balance != nil {
		resp.Balance = &balanceResponse{
			TotalBalance: v.Balance.TotalBalance.String(),
			TotalIncome:  v.Balance.TotalIncome.String(),
			TotalExpense: v.Balance.TotalExpense.String(),
			BranchID:     v.Balance.BranchID,
		}
	}
	for _, k := range engine.SortKeys() {
		resp.SortKeys = append(resp.SortKeys, string(k))
	}
	return resp
}

func toIdentityResponse(i domain.Identity) identityResponse {
	return identityResponse{ID: i.ID, Email: i.Email, Role: string(i.Role), BranchID: i.BranchID}
}

func toOperationResponse(op domain.OperationRecord) operationResponse {
	return operationResponse{
		ID:          op.ID,
		Type:        string(op.Type),
		Amount:      op.Amount.String(),
		Description: op.Description,
		BranchID:    op.BranchID,
		UserID:      op.UserID,
		CreatedAt:   op.CreatedAt.UTC().Format(time.RFC3339),
	}
}
