package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/ports"
)

type ReportHandler struct {
	service ports.ReportService
}

func NewReportHandler(service ports.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary handles GET /api/reports/summary.
//
// @Summary      Totals per branch and recent operations
// @Tags         reports
// @Produce      json
// @Param        branch_id  query     int  false  "Branch filter, 0 for all"
// @Param        limit      query     int  false  "Number of recent operations"
// @Success      200        {object}  domain.Summary
// @Failure      502        {object}  map[string]string
// @Router       /api/reports/summary [get]
func (h *ReportHandler) Summary(c echo.Context) error {
	q, err := reportQuery(c)
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// ExportCSV handles GET /api/reports/export.csv.
//
// @Summary      Download operations as CSV
// @Tags         reports
// @Produce      text/csv
// @Param        branch_id  query  int  false  "Branch filter, 0 for all"
// @Param        limit      query  int  false  "Number of most recent operations"
// @Success      200
// @Router       /api/reports/export.csv [get]
func (h *ReportHandler) ExportCSV(c echo.Context) error {
	return h.export(c, domain.ExportCSV)
}

// ExportPDF handles GET /api/reports/export.pdf.
//
// @Summary      Download the PDF report
// @Tags         reports
// @Produce      application/pdf
// @Param        branch_id  query  int  false  "Branch filter, 0 for all"
// @Param        limit      query  int  false  "Number of most recent operations"
// @Success      200
// @Router       /api/reports/export.pdf [get]
func (h *ReportHandler) ExportPDF(c echo.Context) error {
	return h.export(c, domain.ExportPDF)
}

func (h *ReportHandler) export(c echo.Context, format domain.ExportFormat) error {
	q, err := reportQuery(c)
	if err != nil {
		return err
	}
	export, err := h.service.Export(c.Request().Context(), format, q)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename))
	return c.Blob(http.StatusOK, export.ContentType, export.Body)
}

func reportQuery(c echo.Context) (domain.ReportQuery, error) {
	var branchID, limit int
	if err := echo.QueryParamsBinder(c).
		Int("branch_id", &branchID).
		Int("limit", &limit).
		BindError(); err != nil {
		return domain.ReportQuery{}, echo.NewHTTPError(http.StatusBadRequest, "branch_id and limit must be integers")
	}
	if limit < 0 {
		return domain.ReportQuery{}, echo.NewHTTPError(http.StatusBadRequest, "limit must not be negative")
	}
	return domain.ReportQuery{Branch: domain.ScopeOf(branchID), Limit: limit}, nil
}
