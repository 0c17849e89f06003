package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/gym/internal/config"
)

func TestConnectFailsFastWhenDatabaseIsUnreachable(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "gym",
		Name:           "gym",
		SSLMode:        "disable",
		ConnectTimeout: 500 * time.Millisecond,
		MaxConns:       1,
	}

	conn, err := NewConnector(cfg, zerolog.Nop()).Connect(context.Background())
	require.Error(t, err)
	require.Nil(t, conn)
}

func TestTracerFollowsLoggerLevel(t *testing.T) {
	debug := newTracer(zerolog.Nop().Level(zerolog.DebugLevel))
	require.Equal(t, tracelog.LogLevelDebug, debug.LogLevel)

	info := newTracer(zerolog.Nop().Level(zerolog.InfoLevel))
	require.Equal(t, tracelog.LogLevelInfo, info.LogLevel)
}
