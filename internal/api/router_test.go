package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/branchledger/dashboard/internal/core/domain"
)

type fixedSession struct {
	identity domain.Identity
	err      error
}

func (s fixedSession) Identity() (domain.Identity, error) { return s.identity, s.err }

func serve(t *testing.T, sessions fixedSession, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := NewRouter(Deps{Sessions: sessions, Registerer: prometheus.NewRegistry(), Log: zerolog.Nop()})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_HealthIsPublic(t *testing.T) {
	rec := serve(t, fixedSession{err: domain.ErrAuthRequired}, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	rec := serve(t, fixedSession{err: domain.ErrAuthRequired}, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_APIRequiresSession(t *testing.T) {
	rec := serve(t, fixedSession{err: domain.ErrAuthRequired}, http.MethodGet, "/api/dashboard")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_CapabilityGates(t *testing.T) {
	manager := fixedSession{identity: domain.Identity{ID: 2, Email: "m@example.com", Role: domain.RoleManager}}
	accountant := fixedSession{identity: domain.Identity{ID: 3, Email: "a@example.com", Role: domain.RoleAccountant, BranchID: 2}}

	tests := []struct {
		name     string
		sessions fixedSession
		method   string
		target   string
	}{
		{"manager cannot create operations", manager, http.MethodPost, "/api/operations"},
		{"manager cannot list users", manager, http.MethodGet, "/api/users"},
		{"accountant cannot delete users", accountant, http.MethodDelete, "/api/users/4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(t, tt.sessions, tt.method, tt.target); rec.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", rec.Code)
			}
		})
	}
}
