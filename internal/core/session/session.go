// Package session holds the authenticated operator for the lifetime of the
// process and mirrors it to durable storage.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/branchledger/dashboard/internal/core/domain"
	"github.com/branchledger/dashboard/internal/core/ports"
)

// Store is the single session context shared by the components that need the
// operator's identity or bearer token. Construct one per process and pass it
// by reference.
type Store struct {
	storage ports.SessionStorage
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	token    string
	identity *domain.Identity
}

func NewStore(storage ports.SessionStorage, log zerolog.Logger) *Store {
	return &Store{storage: storage, log: log, now: time.Now}
}

// Hydrate restores a previously persisted session. A missing or malformed
// entry leaves the store unauthenticated; only storage failures are errors.
func (s *Store) Hydrate(ctx context.Context) error {
	token, okToken, err := s.storage.Get(ctx, ports.SessionTokenKey)
	if err != nil {
		return fmt.Errorf("session hydrate: %w", err)
	}
	raw, okUser, err := s.storage.Get(ctx, ports.SessionIdentityKey)
	if err != nil {
		return fmt.Errorf("session hydrate: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.identity = "", nil

	if !okToken || !okUser {
		s.log.Debug().Bool("token", okToken).Bool("user", okUser).Msg("no persisted session")
		return nil
	}

	var id domain.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		s.log.Warn().Err(err).Msg("persisted identity is malformed, sign-in required")
		return nil
	}

	s.token, s.identity = token, &id
	if !s.authenticatedLocked() {
		s.log.Warn().Msg("persisted session is not usable, sign-in required")
		s.token, s.identity = "", nil
		return nil
	}

	s.log.Info().Str("email", id.Email).Str("role", string(id.Role)).Msg("session restored")
	return nil
}

// Begin persists and activates a fresh session. The in-memory state changes
// only after both keys are written.
func (s *Store) Begin(ctx context.Context, token string, identity domain.Identity) error {
	if !wellFormedToken(token, s.now()) || !identity.Valid() {
		return fmt.Errorf("session begin: %w", domain.ErrAuthRequired)
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("session begin: %w", err)
	}
	if err := s.storage.Set(ctx, ports.SessionTokenKey, token); err != nil {
		return fmt.Errorf("session begin: %w", err)
	}
	if err := s.storage.Set(ctx, ports.SessionIdentityKey, string(raw)); err != nil {
		_ = s.storage.Delete(ctx, ports.SessionTokenKey)
		return fmt.Errorf("session begin: %w", err)
	}

	s.mu.Lock()
	s.token, s.identity = token, &identity
	s.mu.Unlock()
	return nil
}

// Logout clears the in-memory session first, then the persisted keys.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.identity = "", nil
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, ports.SessionTokenKey, ports.SessionIdentityKey); err != nil {
		return fmt.Errorf("session logout: %w", err)
	}
	return nil
}

// IsAuthenticated is true iff both token and identity are present and well formed.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticatedLocked()
}

func (s *Store) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return "", domain.ErrAuthRequired
	}
	return s.token, nil
}

func (s *Store) Identity() (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	return *s.identity, nil
}

// Credentials returns token and identity read under one lock.
func (s *Store) Credentials() (string, domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return "", domain.Identity{}, domain.ErrAuthRequired
	}
	return s.token, *s.identity, nil
}

func (s *Store) authenticatedLocked() bool {
	return s.identity != nil && s.identity.Valid() && wellFormedToken(s.token, s.now())
}

// wellFormedToken checks the JWT structure and expiry. The signature is the
// identity service's business and is not verified here.
func wellFormedToken(token string, now time.Time) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	return exp == nil || now.Before(exp.Time)
}
