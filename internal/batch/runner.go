// Package batch runs a fixed sequence of repository operations on one
// connection and one transaction, then commits once.
//
// Each step runs inside its own savepoint. A failing step rolls back only its
// savepoint and is reported; the steps after it still run and commit together
// with the ones before it. Partial failures are therefore logged, never
// rolled back as a whole.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"example.com/gym/internal/domain"
	"example.com/gym/internal/events"
	"example.com/gym/internal/observability"
	"example.com/gym/internal/persistence/postgres"
)

// ErrConnectionFailed marks a run whose connection provider gave no handle.
var ErrConnectionFailed = errors.New("database connection failed")

const (
	resultCommitted        = "committed"
	resultCommitFailed     = "commit_failed"
	resultConnectionFailed = "connection_failed"
)

// Conn is the part of *pgx.Conn the runner needs.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Connector is the connection provider.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Conn, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context) (Conn, error) { return f(ctx) }

// ServiceFactory binds a domain.Service to a transaction handle.
type ServiceFactory func(db postgres.DBTX, publisher events.Publisher) *domain.Service

// Step is one named operation.
type Step struct {
	Name string
	Run  func(ctx context.Context, svc *domain.Service) error
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name    string
	Outcome domain.Outcome
	Err     error
}

// Report summarises a run.
type Report struct {
	RunID     string
	Connected bool
	Committed bool
	Skipped   int
	Steps     []StepResult
	Err       error
}

// Failed returns the results whose outcome is not OK.
func (r Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Outcome != domain.OutcomeOK {
			out = append(out, s)
		}
	}
	return out
}

// Runner executes steps against connections from a Connector.
type Runner struct {
	connector  Connector
	newService ServiceFactory
	publisher  events.Publisher
	logger     zerolog.Logger
}

// NewRunner constructs a Runner. Events produced by successful steps are
// handed to publisher after the commit; a nil publisher discards them.
func NewRunner(connector Connector, newService ServiceFactory, publisher events.Publisher, logger zerolog.Logger) *Runner {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Runner{connector: connector, newService: newService, publisher: publisher, logger: logger}
}

// Run connects, executes steps in order, commits and releases the connection.
// It never returns an error; everything that went wrong is in the Report.
func (r *Runner) Run(ctx context.Context, steps ...Step) Report {
	report := Report{RunID: uuid.NewString()}
	logger := r.logger.With().Str("run_id", report.RunID).Logger()

	conn, err := r.connector.Connect(ctx)
	if err == nil && conn == nil {
		err = errors.New("connection provider returned no handle")
	}
	if err != nil {
		report.Err = fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		report.Skipped = len(steps)
		observability.RecordBatchRun(resultConnectionFailed)
		logger.Error().Err(err).Int("skipped_steps", len(steps)).Msg("database connection failed, skipping all operations")
		return report
	}
	report.Connected = true

	var tx pgx.Tx
	defer func() {
		if tx != nil && !report.Committed {
			if rbErr := tx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logger.Error().Err(rbErr).Msg("rollback transaction")
			}
		}
		if closeErr := conn.Close(context.Background()); closeErr != nil {
			logger.Error().Err(closeErr).Msg("close database connection")
			return
		}
		logger.Debug().Msg("database connection closed")
	}()

	tx, err = conn.Begin(ctx)
	if err != nil {
		tx = nil
		report.Err = fmt.Errorf("begin transaction: %w", err)
		report.Skipped = len(steps)
		observability.RecordBatchRun(resultCommitFailed)
		logger.Error().Err(err).Msg("begin transaction")
		return report
	}

	pending := &events.Buffer{}
	for _, step := range steps {
		report.Steps = append(report.Steps, r.runStep(ctx, tx, step, pending, logger))
	}

	if err := tx.Commit(ctx); err != nil {
		report.Err = fmt.Errorf("commit transaction: %w", err)
		observability.RecordBatchRun(resultCommitFailed)
		logger.Error().Err(err).Int("dropped_events", pending.Len()).Msg("commit transaction")
		return report
	}
	report.Committed = true
	observability.RecordBatchRun(resultCommitted)
	logger.Info().Int("steps", len(report.Steps)).Int("failed", len(report.Failed())).Msg("transaction committed")

	if n := pending.Len(); n > 0 {
		if err := pending.Flush(ctx, r.publisher); err != nil {
			observability.RecordPublishFailure(n)
			logger.Error().Err(err).Int("events", n).Msg("publish change events")
		}
	}
	return report
}

func (r *Runner) runStep(ctx context.Context, tx pgx.Tx, step Step, pending *events.Buffer, logger zerolog.Logger) StepResult {
	result := StepResult{Name: step.Name}

	savepoint, err := tx.Begin(ctx)
	if err != nil {
		result.Outcome, result.Err = domain.OutcomeFailure, fmt.Errorf("savepoint: %w", err)
		logger.Error().Err(err).Str("step", step.Name).Msg("open savepoint")
		return result
	}

	stepEvents := &events.Buffer{}
	if err := step.Run(ctx, r.newService(savepoint, stepEvents)); err != nil {
		if rbErr := savepoint.Rollback(ctx); rbErr != nil {
			logger.Error().Err(rbErr).Str("step", step.Name).Msg("rollback savepoint")
		}
		result.Outcome, result.Err = domain.Classify(err), err
		logger.Debug().Str("step", step.Name).Str("outcome", result.Outcome.String()).Msg("step finished")
		return result
	}

	if err := savepoint.Commit(ctx); err != nil {
		result.Outcome, result.Err = domain.OutcomeFailure, fmt.Errorf("release savepoint: %w", err)
		logger.Error().Err(err).Str("step", step.Name).Msg("release savepoint")
		return result
	}

	_ = stepEvents.Flush(ctx, pending)
	result.Outcome = domain.OutcomeOK
	logger.Debug().Str("step", step.Name).Str("outcome", result.Outcome.String()).Msg("step finished")
	return result
}
