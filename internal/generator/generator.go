// Package generator builds the five scenario tables. Each generator draws
// baseline distributions, applies its scripted overlay before rows are
// appended, and never reads another table.
package generator

import (
	"time"

	"github.com/rs/zerolog"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/scenario"
)

// Score bounds shared by factor scores.
const (
	ScoreMin = 0.02
	ScoreMax = 0.98
)

// Generator produces tables for one scenario context.
type Generator struct {
	sc     *scenario.Context
	logger zerolog.Logger
}

// New constructs a Generator.
func New(sc *scenario.Context, logger zerolog.Logger) *Generator {
	return &Generator{sc: sc, logger: logger.With().Str("component", "generator").Logger()}
}

// All generates every table in hand-off order, each from its own stream.
func (g *Generator) All() *dataset.Tables {
	return &dataset.Tables{
		FactorVectors: g.FactorVectors(g.sc.Stream(dataset.FactorVectorsTable)),
		Positions:     g.Positions(g.sc.Stream(dataset.PositionsTable)),
		Orders:        g.Orders(g.sc.Stream(dataset.OrdersTable)),
		PolicyChanges: g.PolicyChanges(g.sc.Stream(dataset.PolicyChangesTable)),
		Breaches:      g.Breaches(g.sc.Stream(dataset.BreachesTable)),
	}
}

// progress logs roughly every tenth step.
type progress struct {
	logger   zerolog.Logger
	label    string
	total    int
	interval int
}

func newProgress(logger zerolog.Logger, label string, total int) progress {
	interval := total / 10
	if interval < 1 {
		interval = 1
	}
	return progress{logger: logger, label: label, total: total, interval: interval}
}

func (p progress) step(i int) {
	if (i+1)%p.interval != 0 && i != 0 {
		return
	}
	p.logger.Debug().
		Str("unit", p.label).
		Int("done", i+1).
		Int("total", p.total).
		Float64("pct", float64(i+1)/float64(p.total)*100).
		Msg("generation progress")
}

func floorTime(t time.Time) time.Time {
	return t.UTC().Truncate(dataset.TimestampPrecision)
}
