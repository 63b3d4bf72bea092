package handler

import (
	"encoding/json"

	"github.com/branchledger/dashboard/internal/core/policy"
)

// --- Requests ---

type searchRequest struct {
	Text string `json:"text" validate:"max=200"`
}

type sortRequest struct {
	Key string `json:"key" validate:"required"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type branchRequest struct {
	BranchID int `json:"branch_id" validate:"min=0"`
}

type createOperationRequest struct {
	Type        string      `json:"type"        validate:"required,oneof=income expense"`
	Amount      json.Number `json:"amount"      validate:"required,numeric"`
	Description string      `json:"description" validate:"max=500"`
	BranchID    int         `json:"branch_id"   validate:"min=0"`
}

// --- Responses ---

type identityResponse struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	BranchID int    `json:"branch_id"`
}

type scopeResponse struct {
	All      bool `json:"all"`
	BranchID int  `json:"branch_id"`
}

type balanceResponse struct {
	TotalBalance string `json:"total_balance"`
	TotalIncome  string `json:"total_income"`
	TotalExpense string `json:"total_expense"`
	BranchID     int    `json:"branch_id"`
}

type viewStateResponse struct {
	Search   string `json:"search"`
	Sort     string `json:"sort"`
	PageSize int    `json:"page_size"`
}

type operationResponse struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	BranchID    int    `json:"branch_id"`
	UserID      int    `json:"user_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type pageResponse struct {
	Items         []operationResponse `json:"items"`
	PageNumber    int                 `json:"page_number"`
	TotalPages    int                 `json:"total_pages"`
	FilteredCount int                 `json:"filtered_count"`
	HasPrev       bool                `json:"has_prev"`
	HasNext       bool                `json:"has_next"`
	Empty         bool                `json:"empty"`
	Message       string              `json:"message,omitempty"`
}

type dashboardResponse struct {
	User         identityResponse    `json:"user"`
	Capabilities policy.Capabilities `json:"capabilities"`
	Scope        scopeResponse       `json:"scope"`
	Balance      *balanceResponse    `json:"balance"`
	View         viewStateResponse   `json:"view"`
	Page         pageResponse        `json:"page"`
	SortKeys     []string            `json:"sort_keys"`
}
