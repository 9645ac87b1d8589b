// Package pipeline runs one generation end to end: build the tables, hand
// them to the sinks, validate, and report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"portfolio-scenario-gen/internal/alerting"
	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/export"
	"portfolio-scenario-gen/internal/generator"
	"portfolio-scenario-gen/internal/qa"
	"portfolio-scenario-gen/internal/scenario"
)

// Options tune a run.
type Options struct {
	// Files maps a table name to its output file count. Missing tables get one.
	Files map[string]int
	// Enforce turns QA violations into a run error.
	Enforce bool
	// ChartPath, when set, receives the volatility PNG.
	ChartPath string
	// NotifyOnlyOnFailure suppresses notifications for clean runs.
	NotifyOnlyOnFailure bool
}

// Result is what a run produced.
type Result struct {
	Tables *dataset.Tables
	Report *qa.Report
}

// Pipeline wires generation to its collaborators. Sink and notifier are optional.
type Pipeline struct {
	sc        *scenario.Context
	sink      export.Sink
	validator *qa.Validator
	notifier  alerting.Notifier
	report    io.Writer
	opts      Options
	logger    zerolog.Logger
}

// New constructs a pipeline. report receives the rendered QA table; nil discards it.
func New(sc *scenario.Context, sink export.Sink, validator *qa.Validator, notifier alerting.Notifier, report io.Writer, opts Options, logger zerolog.Logger) *Pipeline {
	if report == nil {
		report = io.Discard
	}
	return &Pipeline{
		sc:        sc,
		sink:      sink,
		validator: validator,
		notifier:  notifier,
		report:    report,
		opts:      opts,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

func (p *Pipeline) files(table string) int {
	if n := p.opts.Files[table]; n > 0 {
		return n
	}
	return 1
}

// Run generates every table, persists them in hand-off order, and validates
// the result. A persistence error stops the run before QA.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := p.sc.RunID().String()
	p.logger.Info().Str("run_id", runID).Uint64("seed", p.sc.Seed).Msg("generation started")

	tables := generator.New(p.sc, p.logger).All()

	if err := p.persist(ctx, tables); err != nil {
		return nil, err
	}

	report := p.validator.Validate(p.sc, tables)
	if err := report.Render(p.report); err != nil {
		return nil, fmt.Errorf("render qa report: %w", err)
	}

	if p.opts.ChartPath != "" {
		if err := qa.WriteVolatilityChart(p.opts.ChartPath, p.sc, tables.FactorVectors); err != nil {
			p.logger.Error().Err(err).Str("path", p.opts.ChartPath).Msg("failed to write volatility chart")
		} else {
			p.logger.Info().Str("path", p.opts.ChartPath).Msg("volatility chart written")
		}
	}

	p.notify(ctx, report, started)

	p.logger.Info().Str("run_id", runID).
		Bool("qa_ok", report.OK()).
		Dur("elapsed", time.Since(started)).
		Msg(report.Summary())

	result := &Result{Tables: tables, Report: report}
	if p.opts.Enforce {
		return result, report.Err()
	}
	return result, nil
}

func (p *Pipeline) persist(ctx context.Context, tables *dataset.Tables) error {
	if p.sink == nil {
		p.logger.Warn().Msg("no sink configured; tables are not persisted")
		return nil
	}

	var writeErr error
	for _, table := range tables.All() {
		if err := ctx.Err(); err != nil {
			writeErr = err
			break
		}
		if err := p.sink.Write(ctx, table, p.files(table.Name())); err != nil {
			writeErr = err
			break
		}
		p.logger.Info().Str("table", table.Name()).Int("rows", table.Len()).Msg("table handed off")
	}

	// Close still runs on failure so locks and manifests are released.
	closeErr := p.sink.Close(ctx)
	if err := errors.Join(writeErr, closeErr); err != nil {
		return fmt.Errorf("persist tables: %w", err)
	}
	return nil
}

func (p *Pipeline) notify(ctx context.Context, report *qa.Report, started time.Time) {
	if p.notifier == nil {
		return
	}
	if report.OK() && p.opts.NotifyOnlyOnFailure {
		return
	}

	note := alerting.Notification{
		RunID:       report.RunID,
		Seed:        p.sc.Seed,
		GeneratedAt: started,
		Passed:      report.OK(),
		Summary:     report.Summary(),
		Highlights:  p.highlights(report),
	}
	for _, v := range report.Violations {
		note.FailedChecks = append(note.FailedChecks, v.Check)
	}

	if err := p.notifier.Notify(ctx, note); err != nil {
		p.logger.Error().Err(err).Msg("failed to send run notification")
	}
}

// highlights are the headline metrics of the story.
func (p *Pipeline) highlights(report *qa.Report) []string {
	primary := p.sc.Primary().Ticker
	metrics := []string{
		"volatility_ratio[" + primary + "]",
		"quality_ratio[" + primary + "]",
		"slippage_bps[baseline]",
		"slippage_bps[event]",
		"cluster_breach_rows",
	}
	out := make([]string, 0, len(metrics))
	for _, m := range metrics {
		if f, ok := report.Finding(m); ok {
			out = append(out, fmt.Sprintf("%s = %.4f (target %s)", f.Metric, f.Value, f.Target))
		}
	}
	return out
}
