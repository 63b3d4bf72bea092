package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/branchledger/dashboard/internal/core/domain"
)

// IdentityKey is the echo context key holding the signed-in domain.Identity.
const IdentityKey = "identity"

// SessionReader is the part of the session store the middleware needs.
type SessionReader interface {
	Identity() (domain.Identity, error)
}

// RequireSession rejects the request with ErrAuthRequired unless a session is
// active, and injects the operator's identity into the context.
func RequireSession(sessions SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := sessions.Identity()
			if err != nil {
				return err
			}
			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}
