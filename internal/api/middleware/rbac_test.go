package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/branchledger/dashboard/internal/core/domain"
)

func TestRequireCapability_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(IdentityKey, domain.Identity{ID: 1, Email: "a@b.c", Role: domain.RoleAccountant, BranchID: 2})

	called := false
	handler := RequireCapability("create operation", CanCreateOperation)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireCapability_Forbids(t *testing.T) {
	cases := []struct {
		role domain.Role
		cap  Capability
	}{
		{domain.RoleManager, CanCreateOperation},
		{domain.RoleManager, CanManageUsers},
		{domain.RoleAccountant, CanManageUsers},
		{"guest", CanCreateOperation},
	}

	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(IdentityKey, domain.Identity{ID: 1, Email: "a@b.c", Role: tc.role})

		handler := RequireCapability("action", tc.cap)(func(c echo.Context) error {
			t.Fatalf("%s: should not reach next handler", tc.role)
			return nil
		})

		if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", tc.role, err)
		}
	}
}

func TestRequireCapability_WithoutSession(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	handler := RequireCapability("action", CanManageUsers)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	if err := handler(c); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}
