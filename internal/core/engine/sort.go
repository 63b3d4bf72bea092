package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/branchledger/dashboard/internal/core/domain"
)

// SortKey selects the comparator applied to the filtered records.
type SortKey string

const (
	SortDateDesc   SortKey = "date_desc"
	SortDateAsc    SortKey = "date_asc"
	SortAmountDesc SortKey = "amount_desc"
	SortAmountAsc  SortKey = "amount_asc"
	SortTypeAsc    SortKey = "type_asc"
	SortTypeDesc   SortKey = "type_desc"
)

type comparator func(a, b domain.OperationRecord) int

var comparators = map[SortKey]comparator{
	SortDateDesc:   func(a, b domain.OperationRecord) int { return b.CreatedAt.Compare(a.CreatedAt) },
	SortDateAsc:    func(a, b domain.OperationRecord) int { return a.CreatedAt.Compare(b.CreatedAt) },
	SortAmountDesc: func(a, b domain.OperationRecord) int { return b.Amount.Cmp(a.Amount) },
	SortAmountAsc:  func(a, b domain.OperationRecord) int { return a.Amount.Cmp(b.Amount) },
	SortTypeAsc:    func(a, b domain.OperationRecord) int { return strings.Compare(string(a.Type), string(b.Type)) },
	SortTypeDesc:   func(a, b domain.OperationRecord) int { return strings.Compare(string(b.Type), string(a.Type)) },
}

// SortKeys lists every supported key in display order.
func SortKeys() []SortKey {
	return []SortKey{SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc, SortTypeAsc, SortTypeDesc}
}

// ParseSortKey validates a key received from the operator.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := comparators[k]; !ok {
		return "", fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidInput, s)
	}
	return k, nil
}

// sortRecords orders records in place. Ties keep their filtered order; an
// unknown key leaves the slice untouched.
func sortRecords(records []domain.OperationRecord, key SortKey) {
	cmp, ok := comparators[key]
	if !ok {
		return
	}
	slices.SortStableFunc(records, cmp)
}
