package upstream

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/branchledger/dashboard/internal/core/domain"
)

// ReportingClient talks to the reporting service.
type ReportingClient struct {
	*client
}

func NewReportingClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*ReportingClient, error) {
	c, err := newClient("reporting", baseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	return &ReportingClient{client: c}, nil
}

var exports = map[domain.ExportFormat]struct {
	path        string
	filename    string
	contentType string
}{
	domain.ExportCSV: {"/export.csv", "operations_export.csv", "text/csv"},
	domain.ExportPDF: {"/export.pdf", "report.pdf", "application/pdf"},
}

func (c *ReportingClient) Summary(ctx context.Context, token string, q domain.ReportQuery) (domain.Summary, error) {
	var out domain.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/summary", token, reportQuery(q), nil, &out); err != nil {
		return domain.Summary{}, err
	}
	return out, nil
}

// Export downloads a report. The filename comes from Content-Disposition when
// the service sends one.
func (c *ReportingClient) Export(ctx context.Context, token string, format domain.ExportFormat, q domain.ReportQuery) (domain.Export, error) {
	ep, ok := exports[format]
	if !ok {
		return domain.Export{}, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, format)
	}

	resp, err := c.do(ctx, http.MethodGet, ep.path, token, reportQuery(q), nil)
	if err != nil {
		return domain.Export{}, err
	}

	out := domain.Export{Filename: ep.filename, ContentType: ep.contentType, Body: resp.body}
	if ct := resp.header.Get("Content-Type"); ct != "" {
		out.ContentType = ct
	}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		out.Filename = params["filename"]
	}
	return out, nil
}

func reportQuery(q domain.ReportQuery) url.Values {
	v := scopeQuery(q.Branch)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}
