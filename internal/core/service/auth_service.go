package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/ports"
)

// Login exchanges credentials for a token, resolves the operator behind it and
// only then persists the session. Any failure leaves the previous state alone.
func (s *DashboardService) Login(ctx context.Context, email, password string) (*ports.DashboardView, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	token, err := s.identity.Login(ctx, email, password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("login rejected")
		return nil, fmt.Errorf("login: %w", err)
	}

	identity, err := s.identity.Me(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	identity.Role = domain.NormalizeRole(string(identity.Role))

	// The new operator becomes visible and the previous operator's data is
	// dropped in one critical section.
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Begin(ctx, token, identity); err != nil {
		return nil, err
	}
	s.resetLocked()

	s.log.Info().Int("user_id", identity.ID).Str("role", string(identity.Role)).Int("branch_id", identity.BranchID).Msg("operator signed in")
	return s.viewLocked(identity), nil
}

// Logout clears the session and every piece of dashboard state derived from it.
func (s *DashboardService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	if err := s.session.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Msg("operator signed out")
	return nil
}
