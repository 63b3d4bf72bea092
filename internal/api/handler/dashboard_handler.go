package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/engine"
	"github.com/branchledger/dashboard/internal/core/ports"
)

// DashboardHandler serves the operations view. Every endpoint answers with
// the full dashboard so the renderer never merges partial state.
type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get handles GET /api/dashboard.
//
// @Summary      Current dashboard
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Get(c echo.Context) error {
	return h.render(c)(h.service.View(c.Request().Context()))
}

// Refresh handles POST /api/dashboard/refresh.
//
// @Summary      Reload balance and operations
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/dashboard/refresh [post]
func (h *DashboardHandler) Refresh(c echo.Context) error {
	return h.render(c)(h.service.LoadDashboardData(c.Request().Context()))
}

// Search handles PUT /api/dashboard/search.
//
// @Summary      Filter operations by description
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      searchRequest  true  "Search text"
// @Success      200   {object}  dashboardResponse
// @Router       /api/dashboard/search [put]
func (h *DashboardHandler) Search(c echo.Context) error {
	var req searchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.render(c)(h.service.Search(c.Request().Context(), req.Text))
}

// Sort handles PUT /api/dashboard/sort.
//
// @Summary      Change sort order
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      sortRequest  true  "Sort key"
// @Success      200   {object}  dashboardResponse
// @Failure      422   {object}  map[string]string
// @Router       /api/dashboard/sort [put]
func (h *DashboardHandler) Sort(c echo.Context) error {
	var req sortRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	key, err := engine.ParseSortKey(req.Key)
	if err != nil {
		return err
	}
	return h.render(c)(h.service.Sort(c.Request().Context(), key))
}

// Page handles PUT /api/dashboard/page. Out-of-range pages are clamped.
//
// @Summary      Go to page
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      pageRequest  true  "Page number"
// @Success      200   {object}  dashboardResponse
// @Router       /api/dashboard/page [put]
func (h *DashboardHandler) Page(c echo.Context) error {
	var req pageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.render(c)(h.service.GoToPage(c.Request().Context(), req.Page))
}

// NextPage handles POST /api/dashboard/page/next.
//
// @Summary      Next page
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Router       /api/dashboard/page/next [post]
func (h *DashboardHandler) NextPage(c echo.Context) error {
	return h.render(c)(h.service.NextPage(c.Request().Context()))
}

// PrevPage handles POST /api/dashboard/page/prev.
//
// @Summary      Previous page
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Router       /api/dashboard/page/prev [post]
func (h *DashboardHandler) PrevPage(c echo.Context) error {
	return h.render(c)(h.service.PrevPage(c.Request().Context()))
}

// Branch handles PUT /api/dashboard/branch. 0 selects all branches.
//
// @Summary      Select branch filter
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      branchRequest  true  "Branch id"
// @Success      200   {object}  dashboardResponse
// @Failure      502   {object}  map[string]string
// @Router       /api/dashboard/branch [put]
func (h *DashboardHandler) Branch(c echo.Context) error {
	var req branchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.render(c)(h.service.SelectBranch(c.Request().Context(), domain.ScopeOf(req.BranchID)))
}

// CreateOperation handles POST /api/operations.
//
// @Summary      Record an income or expense
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        body  body      createOperationRequest  true  "Operation"
// @Success      201   {object}  dashboardResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/operations [post]
func (h *DashboardHandler) CreateOperation(c echo.Context) error {
	var req createOperationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.IsPositive() {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "amount must be a positive number")
	}

	view, err := h.service.CreateOperation(c.Request().Context(), ports.CreateOperationInput{
		Type:        domain.OperationType(req.Type),
		Amount:      amount,
		Description: req.Description,
		BranchID:    req.BranchID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDashboardResponse(view))
}

// render turns a service result into the dashboard response.
func (h *DashboardHandler) render(c echo.Context) func(*ports.DashboardView, error) error {
	return func(view *ports.DashboardView, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toDashboardResponse(view))
	}
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprint(err))
	}
	return nil
}
