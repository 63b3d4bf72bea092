package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/branchledger/dashboard/internal/api/middleware"
	"github.com/branchledger/dashboard/internal/core/domain"
)

// ctxIdentity returns the operator injected by middleware.RequireSession.
// A missing identity means the route was registered outside the session group.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := c.Get(middleware.IdentityKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	return identity, nil
}
