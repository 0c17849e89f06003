// Package database opens PostgreSQL connections from config and wires SQL
// trace logging into pgx.
//
// It handles:
//   - single connections for the batch runner (Connector)
//   - connection pools for the API (NewPool)
//   - pgx tracelog backed by zerolog, active when the logger is at debug
package database

import (
	"context"
	"fmt"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"example.com/gym/internal/config"
	"example.com/gym/internal/logging"
)

// Connector opens one connection per call. It is the connection provider of
// the batch runner.
type Connector struct {
	cfg    config.DatabaseConfig
	logger zerolog.Logger
}

// NewConnector constructs a Connector.
func NewConnector(cfg config.DatabaseConfig, logger zerolog.Logger) *Connector {
	return &Connector{cfg: cfg, logger: logger}
}

// Connect dials and pings the database, giving up after the configured
// connect timeout.
func (c *Connector) Connect(ctx context.Context) (*pgx.Conn, error) {
	connCfg, err := pgx.ParseConfig(c.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}
	connCfg.ConnectTimeout = c.cfg.ConnectTimeout
	connCfg.Tracer = newTracer(c.logger)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", connCfg.Host, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c.logger.Info().Str("host", connCfg.Host).Str("database", connCfg.Database).Msg("connected to the database")
	return conn, nil
}

// NewPool creates a pool and pings it so startup fails fast.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	poolCfg.ConnConfig.Tracer = newTracer(logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info().Int32("max_conns", cfg.MaxConns).Msg("connected to the database")
	return pool, nil
}

func newTracer(logger zerolog.Logger) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(logger.With().Str("component", "pgx").Logger()),
		LogLevel: logging.TraceLogLevel(logger.GetLevel()),
	}
}
