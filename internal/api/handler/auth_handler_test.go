package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/branchledger/dashboard/internal/api/middleware"
	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/engine"
	"github.com/branchledger/dashboard/internal/core/policy"
	"github.com/branchledger/dashboard/internal/core/ports"
)

type stubAuthService struct {
	loginFn   func(ctx context.Context, email, password string) (*ports.DashboardView, error)
	loggedOut bool
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.DashboardView, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(_ context.Context) error {
	s.loggedOut = true
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func emptyView(identity domain.Identity) *ports.DashboardView {
	e := engine.New(engine.DefaultPageSize)
	return &ports.DashboardView{
		Identity:     identity,
		Capabilities: policy.For(identity.Role),
		Scope:        policy.EffectiveBranchScope(identity, domain.AllBranches),
		View:         e.ViewState(),
		Page:         e.CurrentPage(),
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*ports.DashboardView, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return emptyView(domain.Identity{ID: 1, Email: email, Role: domain.RoleAccountant, BranchID: 2}), nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"email":"alice@example.com","password":"secret"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, _ := resp["user"].(map[string]any)
	if user["role"] != "accountant" || user["branch_id"] != float64(2) {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	page, _ := resp["page"].(map[string]any)
	if page["empty"] != true || page["message"] != "No operations" {
		t.Fatalf("expected empty page flag, got %+v", page)
	}
}

func TestAuthHandler_Login_Validation(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.DashboardView, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	})

	for body, want := range map[string]int{
		"not-json":                        http.StatusBadRequest,
		`{"email":"nope","password":"x"}`: http.StatusUnprocessableEntity,
		`{"email":"a@example.com"}`:       http.StatusUnprocessableEntity,
	} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/login", body), httptest.NewRecorder())
		err := handler.Login(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != want {
			t.Errorf("%s: expected %d, got %v", body, want, err)
		}
	}
}

func TestAuthHandler_Login_ServiceErrorPropagates(t *testing.T) {
	e := newEcho()
	upstream := &domain.UpstreamError{Service: "identity", StatusCode: http.StatusUnauthorized, Body: "Invalid email or password"}
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.DashboardView, error) { return nil, upstream },
	})

	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"email":"a@example.com","password":"x"}`), httptest.NewRecorder())
	if err := handler.Login(c); !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/logout", nil), rec)

	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || !stub.loggedOut {
		t.Fatalf("expected 204 and logout, got %d", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/me", nil), rec)
	c.Set(middleware.IdentityKey, domain.Identity{ID: 1, Email: "root@example.com", Role: domain.RoleAdmin})

	if err := NewAuthHandler(&stubAuthService{}).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp meResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Capabilities.CanManageUsers || resp.User.Email != "root@example.com" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
