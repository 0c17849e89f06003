package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/gym/internal/api"
	"example.com/gym/internal/auth"
	"example.com/gym/internal/config"
	"example.com/gym/internal/database"
	"example.com/gym/internal/domain"
	"example.com/gym/internal/events"
	"example.com/gym/internal/logging"
	"example.com/gym/internal/persistence/memory"
	"example.com/gym/internal/persistence/postgres"
	httptransport "example.com/gym/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.New("info", "local")
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var repo domain.Repository
	switch cfg.Store {
	case "memory":
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		repo = memory.NewRepository()
	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		repo = postgres.NewRepository(pool)
	}

	var publisher events.Publisher = events.Discard{}
	if cfg.Events.Enabled() {
		producer := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer producer.Close()
		publisher = producer
	}

	service := domain.NewService(repo, publisher, logger)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.JWTIssuer})
	server := httptransport.NewServer(cfg.HTTP, httptransport.RequestLogger(logger)(authMiddleware.Wrap(mux)), logger)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("address", cfg.HTTP.Address).Msg("gym api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
