package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"example.com/gym/internal/batch"
	"example.com/gym/internal/config"
	"example.com/gym/internal/database"
	"example.com/gym/internal/domain"
	"example.com/gym/internal/events"
	"example.com/gym/internal/logging"
	"example.com/gym/internal/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.New("info", "local")
		logger.Error().Err(err).Msg("failed to load config")
		return
	}
	logger := logging.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher events.Publisher = events.Discard{}
	if cfg.Events.Enabled() {
		producer := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer producer.Close()
		publisher = producer
	}

	connector := database.NewConnector(cfg.Database, logger)
	runner := batch.NewRunner(
		batch.ConnectorFunc(func(ctx context.Context) (batch.Conn, error) {
			conn, err := connector.Connect(ctx)
			if err != nil {
				return nil, err
			}
			return conn, nil
		}),
		func(db postgres.DBTX, publisher events.Publisher) *domain.Service {
			return domain.NewService(postgres.NewRepository(db), publisher, logger)
		},
		publisher,
		logger,
	)

	report := runner.Run(ctx, exampleSteps(logger)...)
	logReport(logger, report)
}

// exampleSteps is the routine's fixed workload: one call of each operation.
func exampleSteps(logger zerolog.Logger) []batch.Step {
	return []batch.Step{
		batch.AddMember(domain.Member{ID: 1, Name: "Snow White", Age: 19}),
		batch.AddWorkoutSession(domain.WorkoutSession{
			SessionID:   10,
			MemberID:    2,
			SessionDate: time.Date(2024, time.October, 20, 0, 0, 0, 0, time.UTC),
			SessionTime: "5:15 AM",
			Activity:    "Cardio",
		}),
		batch.UpdateMemberAge(5, 26),
		batch.DeleteWorkoutSession(3),
		batch.MembersInAgeRange(domain.AgeRange{Min: 25, Max: 30}, func(members []domain.Member) {
			logger.Info().Int("count", len(members)).Msg("age range query finished")
		}),
	}
}

func logReport(logger zerolog.Logger, report batch.Report) {
	evt := logger.Info()
	if !report.Connected || !report.Committed {
		evt = logger.Error().Err(report.Err)
	}
	evt.Str("run_id", report.RunID).
		Bool("connected", report.Connected).
		Bool("committed", report.Committed).
		Int("steps", len(report.Steps)).
		Int("failed", len(report.Failed())).
		Int("skipped", report.Skipped).
		Msg("batch finished")
}
