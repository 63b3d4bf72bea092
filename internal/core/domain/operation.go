package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is the direction of a ledger operation.
type OperationType string

const (
	OperationIncome  OperationType = "income"
	OperationExpense OperationType = "expense"
)

// epoch is the instant used for timestamps that cannot be parsed.
var epoch = time.Unix(0, 0).UTC()

// timestampLayouts are tried in order. The ledger serializes naive datetimes
// without a zone suffix, which are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// OperationRecord is a single income or expense entry owned by the ledger.
type OperationRecord struct {
	ID          int             `json:"id"`
	Type        OperationType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	BranchID    int             `json:"branch_id"`
	UserID      int             `json:"user_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type operationWire struct {
	ID          int             `json:"id"`
	Type        OperationType   `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Description *string         `json:"description"`
	BranchID    int             `json:"branch_id"`
	UserID      int             `json:"user_id"`
	CreatedAt   json.RawMessage `json:"created_at"`
}

// UnmarshalJSON decodes a ledger record leniently: an amount that is missing
// or not a number becomes zero, and an unreadable created_at becomes the Unix
// epoch, so one bad row never fails a whole fetch.
func (o *OperationRecord) UnmarshalJSON(data []byte) error {
	var w operationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = OperationRecord{
		ID:        w.ID,
		Type:      w.Type,
		Amount:    ParseAmount(w.Amount),
		BranchID:  w.BranchID,
		UserID:    w.UserID,
		CreatedAt: ParseTimestamp(w.CreatedAt),
	}
	if w.Description != nil {
		o.Description = *w.Description
	}
	return nil
}

// ParseAmount reads a JSON number or numeric string; anything else is zero.
func ParseAmount(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}
	s := string(raw)
	if raw[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return decimal.Zero
		}
		s = unq
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseTimestamp reads a JSON string timestamp; anything unreadable is the epoch.
func ParseTimestamp(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return epoch
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return epoch
}

// NewOperation is the payload for POST /operations.
type NewOperation struct {
	Type        OperationType
	Amount      decimal.Decimal
	Description string
	BranchID    int
}

// Balance is the aggregate returned by GET /balance.
type Balance struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	BranchID     int             `json:"branch_id"`
}
