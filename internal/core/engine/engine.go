// Package engine derives the paginated, filtered and sorted operations view
// from the full record set fetched from the ledger.
//
// Every mutation re-runs the whole pipeline (filter → stable sort → paginate)
// over the stored records; there is no incremental diffing. An Engine is not
// safe for concurrent use.
package engine

import (
	"strings"

	"github.com/branchledger/dashboard/internal/core/domain"
)

// DefaultPageSize is used when New receives a non-positive page size.
const DefaultPageSize = 5

// ViewState is the operator-controlled part of the view.
type ViewState struct {
	SearchText string  `json:"search_text"`
	SortKey    SortKey `json:"sort_key"`
	PageNumber int     `json:"page_number"`
	PageSize   int     `json:"page_size"`
}

// Page is the derived slice of records currently on screen.
type Page struct {
	Items         []domain.OperationRecord `json:"items"`
	PageNumber    int                      `json:"page_number"`
	TotalPages    int                      `json:"total_pages"`
	FilteredCount int                      `json:"filtered_count"`
}

// Empty reports whether the filtered set has no records.
func (p Page) Empty() bool {
	return p.FilteredCount == 0
}

// Engine owns the record set and the view state.
type Engine struct {
	records []domain.OperationRecord
	view    ViewState
	page    Page
}

// New returns an empty engine sorted newest first.
func New(pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	e := &Engine{
		view: ViewState{
			SortKey:    SortDateDesc,
			PageNumber: 1,
			PageSize:   pageSize,
		},
	}
	e.recompute()
	return e
}

// SetRecords replaces the record set and returns to the first page.
func (e *Engine) SetRecords(records []domain.OperationRecord) {
	e.records = append([]domain.OperationRecord(nil), records...)
	e.view.PageNumber = 1
	e.recompute()
}

// SetSearch changes the description filter and returns to the first page.
func (e *Engine) SetSearch(text string) {
	e.view.SearchText = text
	e.view.PageNumber = 1
	e.recompute()
}

// SetSort changes the ordering and returns to the first page.
func (e *Engine) SetSort(key SortKey) {
	e.view.SortKey = key
	e.view.PageNumber = 1
	e.recompute()
}

// SetPage navigates to page n, clamped into [1, TotalPages].
func (e *Engine) SetPage(n int) {
	e.view.PageNumber = n
	e.recompute()
}

// NextPage advances one page; it is a no-op on the last page.
func (e *Engine) NextPage() {
	if e.HasNext() {
		e.SetPage(e.view.PageNumber + 1)
	}
}

// PrevPage goes back one page; it is a no-op on the first page.
func (e *Engine) PrevPage() {
	if e.HasPrev() {
		e.SetPage(e.view.PageNumber - 1)
	}
}

// HasNext reports whether a page follows the current one.
func (e *Engine) HasNext() bool { return e.page.PageNumber < e.page.TotalPages }

// HasPrev reports whether a page precedes the current one.
func (e *Engine) HasPrev() bool { return e.page.PageNumber > 1 }

// CurrentPage returns a copy of the derived page.
func (e *Engine) CurrentPage() Page {
	p := e.page
	p.Items = append([]domain.OperationRecord{}, e.page.Items...)
	return p
}

// ViewState returns the current search, sort and paging settings.
func (e *Engine) ViewState() ViewState { return e.view }

// RecordCount is the size of the unfiltered record set.
func (e *Engine) RecordCount() int { return len(e.records) }

func (e *Engine) recompute() {
	filtered := filter(e.records, e.view.SearchText)
	sortRecords(filtered, e.view.SortKey)

	size := e.view.PageSize
	totalPages := max(1, (len(filtered)+size-1)/size)
	pageNumber := min(max(e.view.PageNumber, 1), totalPages)
	e.view.PageNumber = pageNumber

	start := min((pageNumber-1)*size, len(filtered))
	end := min(start+size, len(filtered))

	e.page = Page{
		Items:         filtered[start:end],
		PageNumber:    pageNumber,
		TotalPages:    totalPages,
		FilteredCount: len(filtered),
	}
}

// filter keeps records whose description contains text, ignoring case.
// The result is always a fresh slice so sorting never touches e.records.
func filter(records []domain.OperationRecord, text string) []domain.OperationRecord {
	out := make([]domain.OperationRecord, 0, len(records))
	if text == "" {
		return append(out, records...)
	}
	q := strings.ToLower(text)
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Description), q) {
			out = append(out, r)
		}
	}
	return out
}
