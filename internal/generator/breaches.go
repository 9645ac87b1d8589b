package generator

import (
	"fmt"
	"time"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/stochastic"
	"portfolio-scenario-gen/internal/universe"
)

// Severity bounds.
const (
	SeverityMin        = 0.01
	SeverityMax        = 0.98
	ClusterSeverityMin = 0.18
)

// BaselineBreachRate is the Poisson mean of daily breaches for a limit type.
func BaselineBreachRate(limit string) float64 {
	if limit == universe.LimitConcentration {
		return 1.0
	}
	return 0.3
}

// InBreachCluster reports whether a row falls in the scripted cluster.
func (g *Generator) InBreachCluster(d time.Time, sleeve, limit string) bool {
	return sleeve == g.sc.Stress.Sleeve && g.sc.IsStressedLimit(limit) && g.sc.Windows.InCluster(d)
}

// Breaches emits one row per (sleeve, limit type, trading day) of the impact
// window, day-major.
func (g *Generator) Breaches(rng *stochastic.Stream) *dataset.Frame[dataset.Breach] {
	days := g.sc.ImpactDays()
	u := g.sc.Universe
	g.logger.Info().Int("days", len(days)).Msg("generating risk limit breaches")

	rows := make([]dataset.Breach, 0, len(days)*len(u.Sleeves)*len(u.LimitTypes))
	prog := newProgress(g.logger, "days", len(days))
	for i, d := range days {
		prog.step(i)
		stamp := d.Format("20060102")
		for _, sleeve := range u.Sleeves {
			code := universe.SleeveCode(sleeve)
			for _, limit := range u.LimitTypes {
				count := rng.Poisson(BaselineBreachRate(limit))
				severity := stochastic.Clip(rng.LogNormal(-0.5, 0.8), SeverityMin, SeverityMax)

				if g.InBreachCluster(d, sleeve, limit) {
					count = rng.Pick(g.sc.Stress.ClusterCounts)
					severity = stochastic.Clip(rng.LogNormal(0, 0.9), ClusterSeverityMin, SeverityMax)
				}

				rows = append(rows, dataset.Breach{
					BreachID:      fmt.Sprintf("BR-%s-%s-%s-%04d", stamp, code, limit, rng.IntRange(1000, 10000)),
					Date:          floorTime(d),
					Sleeve:        sleeve,
					LimitType:     limit,
					BreachCount:   int64(count),
					SeverityScore: severity,
				})
			}
		}
	}

	g.logger.Info().Int("rows", len(rows)).Msg("breaches generated")
	return dataset.NewFrame(dataset.BreachesTable, dataset.BreachColumns, rows)
}
