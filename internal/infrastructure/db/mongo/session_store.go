package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionCollection = "dashboard_session"
	ttlIndexName      = "session_ttl"
)

// Server error codes returned when an index with the same name or keys
// already exists with other options.
const (
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// SessionStore keeps the durable session keys as one document per key.
// With a positive ttl, keys expire ttl after their last write.
type SessionStore struct {
	coll *mongo.Collection
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionStore wraps db and, for a positive ttl, ensures the TTL index on
// updated_at. A zero ttl keeps keys until they are deleted.
func NewSessionStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*SessionStore, error) {
	s := &SessionStore{coll: db.Collection(sessionCollection), ttl: ttl, now: time.Now}
	if ttl > 0 {
		if err := s.ensureTTLIndex(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type sessionEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e sessionEntry
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find session key %s: %w", key, err)
	}
	// The TTL monitor runs about once a minute; an expired entry it has not
	// removed yet reads as absent.
	if s.expired(e.UpdatedAt) {
		return "", false, nil
	}
	return e.Value, true, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	update := bson.M{"$set": bson.M{"value": value, "updated_at": s.now().UTC()}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert session key %s: %w", key, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
		return fmt.Errorf("delete session keys: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *SessionStore) Name() string { return "mongo" }

func (s *SessionStore) expired(updatedAt time.Time) bool {
	return s.ttl > 0 && !updatedAt.IsZero() && !s.now().Before(updatedAt.Add(s.ttl))
}

// ensureTTLIndex creates the expiry index, replacing one left behind with a
// different ttl.
func (s *SessionStore) ensureTTLIndex(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().
			SetName(ttlIndexName).
			SetExpireAfterSeconds(int32(max(s.ttl/time.Second, 1))),
	}
	_, err := s.coll.Indexes().CreateOne(ctx, model)
	if err == nil {
		return nil
	}
	var ce mongo.CommandError
	if !errors.As(err, &ce) || (ce.Code != codeIndexOptionsConflict && ce.Code != codeIndexKeySpecsConflict) {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	if _, err := s.coll.Indexes().DropOne(ctx, ttlIndexName); err != nil {
		return fmt.Errorf("drop stale session ttl index: %w", err)
	}
	if _, err := s.coll.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}
