package mongo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultConnectTimeout = 10 * time.Second
	appName               = "branch-dashboard"
)

// Config is the session backend's connection settings.
type Config struct {
	URI      string
	Database string
	// ConnectTimeout bounds dialing, server selection and the first ping.
	ConnectTimeout time.Duration
}

// Connect dials the deployment, checks that a primary answers and returns the
// client with the session database selected.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if strings.TrimSpace(cfg.URI) == "" || strings.TrimSpace(cfg.Database) == "" {
		return nil, nil, errors.New("mongo session backend: uri and database are required")
	}
	timeout := cmp.Or(cfg.ConnectTimeout, defaultConnectTimeout)

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping %s: %w", cfg.Database, err)
	}

	return client, client.Database(cfg.Database), nil
}
