package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/branchledger/dashboard/internal/core/domain"
)

type stubReportService struct {
	query  domain.ReportQuery
	format domain.ExportFormat
}

func (s *stubReportService) Summary(_ context.Context, q domain.ReportQuery) (domain.Summary, error) {
	s.query = q
	return domain.Summary{Count: 4}, nil
}

func (s *stubReportService) Export(_ context.Context, format domain.ExportFormat, q domain.ReportQuery) (domain.Export, error) {
	s.query, s.format = q, format
	return domain.Export{Filename: "operations_export.csv", ContentType: "text/csv", Body: []byte("id,type\n")}, nil
}

func TestReportHandler_SummaryQuery(t *testing.T) {
	e := newEcho()
	stub := &stubReportService{}
	rec := httptest.NewRecorder()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/reports/summary?branch_id=3&limit=10", nil), rec)
	if err := NewReportHandler(stub).Summary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.query.Branch != domain.BranchScope(3) || stub.query.Limit != 10 {
		t.Fatalf("unexpected query %+v", stub.query)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReportHandler_BadQuery(t *testing.T) {
	e := newEcho()
	for _, target := range []string{"/?branch_id=x", "/?limit=-1"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		if err := NewReportHandler(&stubReportService{}).Summary(c); err == nil {
			t.Errorf("%s: expected error", target)
		}
	}
}

func TestReportHandler_ExportCSV(t *testing.T) {
	e := newEcho()
	stub := &stubReportService{}
	rec := httptest.NewRecorder()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/reports/export.csv", nil), rec)
	if err := NewReportHandler(stub).ExportCSV(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.format != domain.ExportCSV || !stub.query.Branch.IsAll() {
		t.Fatalf("unexpected call %s %+v", stub.format, stub.query)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="operations_export.csv"` {
		t.Errorf("unexpected disposition %q", got)
	}
	if rec.Header().Get("Content-Type") != "text/csv" || rec.Body.String() != "id,type\n" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
