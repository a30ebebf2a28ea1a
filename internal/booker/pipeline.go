package booker

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"kadence-booker/internal/kadence"
	"kadence-booker/internal/models"
)

// Config adjusts a pipeline run.
type Config struct {
	DryRun      bool
	Concurrency int // worker pool size, floored at 1
	FailureLog  *FailureLog
}

// Pipeline runs the full per-row sequence — validate, resolve the
// email/building/floor/space chain, compute the local-to-UTC window, then
// submit (or stop short in dry-run) — over a bounded pool of workers.
type Pipeline struct {
	logger    *slog.Logger
	resolver  *kadence.Resolver
	submitter *Submitter
	cfg       Config
}

func NewPipeline(logger *slog.Logger, resolver *kadence.Resolver, submitter *Submitter, cfg Config) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{logger: logger, resolver: resolver, submitter: submitter, cfg: cfg}
}

// Run processes every row exactly once and returns the collected outcomes.
// Outcome order follows completion, not input; row numbers carry the
// original positions. A failed row never aborts the others.
func (p *Pipeline) Run(ctx context.Context, rows []models.InputRow) []models.Outcome {
	p.logger.Info("Starting booking run", "rows", len(rows), "concurrency", p.cfg.Concurrency, "dryRun", p.cfg.DryRun)

	var (
		mu       sync.Mutex
		outcomes = make([]models.Outcome, 0, len(rows))
	)

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for _, row := range rows {
		row := row
		g.Go(func() error {
			outcome := p.processRow(ctx, row)
			p.report(outcome)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures are row-local outcomes.
	_ = g.Wait()

	succeeded, failed := Summarize(outcomes)
	p.logger.Info("Booking run finished", "succeeded", succeeded, "failed", failed)
	return outcomes
}

// processRow is the per-row state machine. The first failing step produces
// the terminal failed outcome; no step is retried here (the only fallbacks
// live inside the resolver's listing shapes and the submitter's payload
// shapes).
func (p *Pipeline) processRow(ctx context.Context, row models.InputRow) models.Outcome {
	fail := func(err error) models.Outcome {
		return models.Outcome{Row: row.Number, Input: row, Status: models.StatusFailed, Err: err.Error()}
	}

	if err := validateRow(row); err != nil {
		return fail(err)
	}

	userID, err := p.resolver.ResolveUser(ctx, row.Email)
	if err != nil {
		return fail(err)
	}
	building, err := p.resolver.ResolveBuilding(ctx, row.Building)
	if err != nil {
		return fail(err)
	}
	floorID, err := p.resolver.ResolveFloor(ctx, building.ID, row.Floor)
	if err != nil {
		return fail(err)
	}
	spaceID, err := p.resolver.ResolveSpace(ctx, floorID, row.Space, row.SpaceType)
	if err != nil {
		return fail(err)
	}

	timezone := p.resolver.BuildingTimezone(ctx, building)
	window, err := ComputeWindow(timezone, row.Date, row.StartTime, row.EndTime)
	if err != nil {
		return fail(err)
	}

	if p.cfg.DryRun {
		return models.Outcome{Row: row.Number, Input: row, Status: models.StatusDryRun, Window: window}
	}

	booking, err := p.submitter.Submit(ctx, BookingRequest{UserID: userID, SpaceID: spaceID, Window: window})
	if err != nil {
		return fail(err)
	}
	return models.Outcome{Row: row.Number, Input: row, Status: models.StatusCreated, BookingID: booking.ID, Window: window}
}

// report prints the outcome as it happens and records creation failures.
// The failure log is never touched in dry-run mode.
func (p *Pipeline) report(outcome models.Outcome) {
	if outcome.Status != models.StatusFailed {
		p.logger.Info("Row processed", "row", outcome.Row, "status", outcome.Status, "bookingID", outcome.BookingID)
		return
	}
	p.logger.Error("Row failed", "row", outcome.Row, "error", outcome.Err)
	if p.cfg.FailureLog != nil && !p.cfg.DryRun {
		if err := p.cfg.FailureLog.Record(outcome.Input, outcome.Err); err != nil {
			p.logger.Error("Could not record failure", "row", outcome.Row, "error", err)
		}
	}
}

// Summarize tallies outcomes into the run's success/failure counts.
func Summarize(outcomes []models.Outcome) (succeeded, failed int) {
	for _, o := range outcomes {
		if o.Status == models.StatusFailed {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
