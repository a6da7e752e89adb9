package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection pool settings.
// Sensible defaults are applied by DefaultConfig().
type Config struct {
	URI             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// ConnectTimeout bounds each dial and each startup ping.
	ConnectTimeout time.Duration
	// PingAttempts is how many startup pings Connect makes before giving up.
	// The wait grows linearly: RetryInterval, then 2x, then 3x.
	PingAttempts  int
	RetryInterval time.Duration
}

// DefaultConfig returns production-ready pool settings.
// Override individual fields as needed.
func DefaultConfig(uri string) Config {
	return Config{
		URI:             uri,
		ApplicationName: "pixoform-api",
		MaxConns:        10,
		MinConns:        2,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		PingAttempts:    5,
		RetryInterval:   2 * time.Second,
	}
}

// poolConfig turns cfg into a pgxpool configuration. Values that are zero
// or out of range keep the driver's defaults.
func poolConfig(cfg Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URI: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 && cfg.MinConns <= poolCfg.MaxConns {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.ApplicationName != "" {
		if _, set := poolCfg.ConnConfig.RuntimeParams["application_name"]; !set {
			poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
		}
	}
	return poolCfg, nil
}

// Connect creates a PostgreSQL connection pool using the provided config
// and verifies connectivity, retrying the ping up to cfg.PingAttempts times.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := ping(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("Connected to database",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"maxConns", poolCfg.MaxConns,
	)
	return pool, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func ping(ctx context.Context, p pinger, cfg Config) error {
	attempts := max(cfg.PingAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx := ctx
		cancel := context.CancelFunc(func() {})
		if cfg.ConnectTimeout > 0 {
			pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		}
		err = p.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		slog.Warn("Database not reachable yet, retrying",
			"attempt", attempt,
			"of", attempts,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * cfg.RetryInterval):
		}
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}
