package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/policy"
	"github.com/branchledger/dashboard/internal/metrics"
)

// LoadUsers fetches the account list for the admin panel.
func (s *DashboardService) LoadUsers(ctx context.Context) ([]domain.User, error) {
	token, err := s.userAdminToken()
	if err != nil {
		return nil, err
	}

	users, err := s.identity.ListUsers(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	s.mu.Lock()
	s.users = slices.Clone(users)
	s.mu.Unlock()
	return users, nil
}

// SaveUser creates the user when in.ID is zero and otherwise sends a partial
// update. The list is reloaded once after a successful write.
func (s *DashboardService) SaveUser(ctx context.Context, in domain.UserInput) ([]domain.User, error) {
	token, err := s.userAdminToken()
	if err != nil {
		return nil, err
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Role = domain.NormalizeRole(string(in.Role))

	kind := "create_user"
	if in.IsUpdate() {
		kind = "update_user"
		_, err = s.identity.UpdateUser(ctx, token, in)
	} else {
		if in.Email == "" || in.Password == "" || in.Role == "" {
			return nil, fmt.Errorf("%w: email, password and role are required", domain.ErrInvalidInput)
		}
		_, err = s.identity.CreateUser(ctx, token, in)
	}
	if err != nil {
		metrics.WritesTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%s: %w", strings.ReplaceAll(kind, "_", " "), err)
	}
	metrics.WritesTotal.WithLabelValues(kind, "ok").Inc()
	s.log.Info().Str("kind", kind).Int("user_id", in.ID).Str("email", in.Email).Msg("user saved")

	return s.LoadUsers(ctx)
}

// DeleteUser removes a user and reloads the list.
func (s *DashboardService) DeleteUser(ctx context.Context, id int) ([]domain.User, error) {
	token, err := s.userAdminToken()
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", domain.ErrInvalidInput)
	}

	if err := s.identity.DeleteUser(ctx, token, id); err != nil {
		metrics.WritesTotal.WithLabelValues("delete_user", "error").Inc()
		return nil, fmt.Errorf("delete user %d: %w", id, err)
	}
	metrics.WritesTotal.WithLabelValues("delete_user", "ok").Inc()
	s.log.Info().Int("user_id", id).Msg("user deleted")

	return s.LoadUsers(ctx)
}

func (s *DashboardService) userAdminToken() (string, error) {
	token, identity, err := s.session.Credentials()
	if err != nil {
		return "", err
	}
	if !policy.For(identity.Role).CanManageUsers {
		return "", fmt.Errorf("manage users: %w", domain.ErrForbidden)
	}
	return token, nil
}
