package ports

import "context"

// Durable storage keys for a persisted session.
const (
	SessionTokenKey    = "token"
	SessionIdentityKey = "user"
)

// SessionStorage is a small durable key/value store holding the persisted
// session between process restarts.
type SessionStorage interface {
	// Get returns the stored value and false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
