// Package pipeline runs the ingest, extract and import stages in strict
// sequence. Stages share no data directly; each one reads the records the
// previous stage left behind, gated by the persisted status flags.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"orca/internal/models"
)

// CountStage is a stage that reports how many records it processed
type CountStage interface {
	Run(ctx context.Context) (int, error)
}

// ImportStage additionally reports a summary per imported order
type ImportStage interface {
	Run(ctx context.Context) (int, []models.OrderSummary, error)
}

// Summary aggregates the result of one pipeline run
type Summary struct {
	EmailsFound    int
	EmailsParsed   int
	OrdersImported int
	NewOrders      []models.OrderSummary
	Err            error
}

// Pipeline orchestrates the batch stages. Export is not part of the batch;
// it is operator-triggered per order line.
type Pipeline struct {
	ingest  CountStage
	extract CountStage
	imprt   ImportStage
	logger  zerolog.Logger
}

// New creates a new Pipeline
func New(ingest, extract CountStage, imprt ImportStage, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		ingest:  ingest,
		extract: extract,
		imprt:   imprt,
		logger:  logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the stages in order. A stage failure stops the later stages
// and is recorded on the summary together with the counts gathered so far;
// Run itself never fails and a panicking stage is converted into an error.
func (p *Pipeline) Run(ctx context.Context) (summary Summary) {
	defer func() {
		if r := recover(); r != nil {
			summary.Err = fmt.Errorf("pipeline panicked: %v", r)
			p.logger.Error().Err(summary.Err).Msg("Pipeline run aborted")
		}
	}()

	p.logger.Info().Msg("Pipeline run started")

	found, err := p.ingest.Run(ctx)
	summary.EmailsFound = found
	if err != nil {
		summary.Err = fmt.Errorf("ingest stage failed: %w", err)
		p.logger.Error().Err(err).Msg("Ingest stage failed")
		return summary
	}

	parsed, err := p.extract.Run(ctx)
	summary.EmailsParsed = parsed
	if err != nil {
		summary.Err = fmt.Errorf("extract stage failed: %w", err)
		p.logger.Error().Err(err).Msg("Extract stage failed")
		return summary
	}

	imported, newOrders, err := p.imprt.Run(ctx)
	summary.OrdersImported = imported
	summary.NewOrders = newOrders
	if err != nil {
		summary.Err = fmt.Errorf("import stage failed: %w", err)
		p.logger.Error().Err(err).Msg("Import stage failed")
		return summary
	}

	p.logger.Info().
		Int("emails_found", found).
		Int("emails_parsed", parsed).
		Int("orders_imported", imported).
		Msg("Pipeline run finished")

	return summary
}
