package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/policy"
)

// Capability selects one flag out of the role's capabilities.
type Capability func(policy.Capabilities) bool

var (
	CanCreateOperation Capability = func(c policy.Capabilities) bool { return c.CanCreateOperation }
	CanManageUsers     Capability = func(c policy.Capabilities) bool { return c.CanManageUsers }
)

// RequireCapability enforces the authorization policy for the identity set by
// RequireSession. It must run after RequireSession.
func RequireCapability(name string, allowed Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := c.Get(IdentityKey).(domain.Identity)
			if !ok {
				return domain.ErrAuthRequired
			}
			if !allowed(policy.For(identity.Role)) {
				return fmt.Errorf("%s: %w", name, domain.ErrForbidden)
			}
			return next(c)
		}
	}
}
