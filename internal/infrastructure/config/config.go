package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	PageSize      int    `env:"PAGE_SIZE,      default=5"`
	RefreshPolicy string `env:"REFRESH_POLICY, default=last_write_wins"`

	Upstream UpstreamConfig
	Session  SessionConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type UpstreamConfig struct {
	IdentityURL  string        `env:"AUTH_SERVICE,     default=http://localhost:8000"`
	LedgerURL    string        `env:"FINANCE_SERVICE,  default=http://localhost:8001"`
	ReportingURL string        `env:"REPORT_SERVICE,   default=http://localhost:8002"`
	Timeout      time.Duration `env:"UPSTREAM_TIMEOUT, default=10s"`
}

// SessionConfig selects where the operator's token and identity are persisted.
type SessionConfig struct {
	Backend string        `env:"SESSION_BACKEND, default=file"`
	File    string        `env:"SESSION_FILE,    default=.dashboard-session.json"`
	TTL     time.Duration `env:"SESSION_TTL,     default=0s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=branch_dashboard"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment enables pretty console logs.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	switch cfg.Session.Backend {
	case "file", "redis", "mongo":
	default:
		return nil, fmt.Errorf("SESSION_BACKEND must be file, redis or mongo, got %q", cfg.Session.Backend)
	}
	return &cfg, nil
}
