package service

import (
	"context"
	"fmt"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/policy"
)

// Summary returns the reporting service's totals for the effective scope.
func (s *DashboardService) Summary(ctx context.Context, q domain.ReportQuery) (domain.Summary, error) {
	token, identity, err := s.session.Credentials()
	if err != nil {
		return domain.Summary{}, err
	}
	q.Branch = policy.EffectiveBranchScope(identity, q.Branch)
	if q.Limit < 0 {
		q.Limit = 0
	}

	summary, err := s.reporting.Summary(ctx, token, q)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("report summary: %w", err)
	}
	return summary, nil
}

// Export downloads a CSV or PDF rendition of the operations in scope.
func (s *DashboardService) Export(ctx context.Context, format domain.ExportFormat, q domain.ReportQuery) (domain.Export, error) {
	token, identity, err := s.session.Credentials()
	if err != nil {
		return domain.Export{}, err
	}
	if format != domain.ExportCSV && format != domain.ExportPDF {
		return domain.Export{}, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, format)
	}
	q.Branch = policy.EffectiveBranchScope(identity, q.Branch)

	export, err := s.reporting.Export(ctx, token, format, q)
	if err != nil {
		return domain.Export{}, fmt.Errorf("export %s: %w", format, err)
	}
	s.log.Info().Str("format", string(format)).Str("scope", q.Branch.String()).Int("bytes", len(export.Body)).Msg("report exported")
	return export, nil
}
