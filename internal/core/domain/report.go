package domain

import "github.com/shopspring/decimal"

// ExportFormat selects a reporting download.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ReportQuery narrows summary and export requests. Limit 0 leaves the
// reporting service default in place.
type ReportQuery struct {
	Branch BranchScope
	Limit  int
}

// BranchTotals is one row of the per-branch breakdown in a summary.
type BranchTotals struct {
	BranchID int             `json:"branch_id"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Balance  decimal.Decimal `json:"balance"`
}

// Summary is the payload of GET /summary.
type Summary struct {
	TotalIncome  decimal.Decimal   `json:"total_income"`
	TotalExpense decimal.Decimal   `json:"total_expense"`
	TotalBalance decimal.Decimal   `json:"total_balance"`
	Branches     []BranchTotals    `json:"branches"`
	Count        int               `json:"count"`
	Recent       []OperationRecord `json:"recent"`
}

// Export is a downloaded report body together with the metadata needed to
// hand it to the operator as a file.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}
