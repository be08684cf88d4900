package database

import (
	"context"
	"fmt"
	"time"

	"usda-import/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ApplicationName is reported to PostgreSQL so import sessions show up in pg_stat_activity.
const ApplicationName = "usda-import"

// connectTimeout bounds each dial when the connection string sets none.
const connectTimeout = 10 * time.Second

// NewPool opens the pool an import run works through and pings the server.
// A run holds one transaction at a time, so the pool stays small and is
// closed when the run ends.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Str("user", cfg.User).
		Str("sslmode", sslMode).
		Str("application_name", ApplicationName).
		Msg("connecting to catalog database")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug().Int32("max_connections", poolConfig.MaxConns).Msg("catalog database reachable")

	return pool, nil
}

// newPoolConfig translates the importer settings into a pgxpool configuration.
func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	if poolConfig.ConnConfig.ConnectTimeout == 0 {
		poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	}

	// One writer plus the ping; extra connections would only sit idle.
	poolConfig.MaxConns = int32(max(cfg.MaxConnections, 1))
	poolConfig.MinConns = int32(min(cfg.MinConnections, cfg.MaxConnections))
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	}

	return poolConfig, nil
}
