package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/branchledger/dashboard/internal/core/domain"
)

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"auth required", domain.ErrAuthRequired, http.StatusUnauthorized},
		{"upstream 401", &domain.UpstreamError{Service: "ledger", StatusCode: 401}, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("create operation: %w", domain.ErrForbidden), http.StatusForbidden},
		{"invalid input", fmt.Errorf("%w: amount", domain.ErrInvalidInput), http.StatusUnprocessableEntity},
		{"upstream", fmt.Errorf("load balance: %w", &domain.UpstreamError{Service: "ledger", StatusCode: 500, Body: "db down"}), http.StatusBadGateway},
		{"network", fmt.Errorf("%w: dial", domain.ErrNetwork), http.StatusServiceUnavailable},
		{"echo", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Fatalf("expected error envelope, got %q", rec.Body.String())
			}
		})
	}
}

func TestHTTPErrorHandler_UpstreamBodyIsShown(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(&domain.UpstreamError{Service: "ledger", StatusCode: 400, Body: "amount must be positive"}, c)

	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "ledger service error (400): amount must be positive" {
		t.Fatalf("unexpected message %q", body.Error)
	}
}
