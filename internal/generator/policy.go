package generator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/stochastic"
	"portfolio-scenario-gen/internal/universe"
)

// PolicyTemplate is one curated threshold change, dated relative to the pivot.
type PolicyTemplate struct {
	Seq        int
	OffsetDays int
	Sleeve     string
	Sector     string
	LimitType  string
	Old        string
	New        string
	Notes      string
}

// PolicySchedule is the curated change log around the event.
var PolicySchedule = []PolicyTemplate{
	{101, -34, universe.CoreEMEA, "", universe.LimitConcentration, "0.15", "0.14",
		"Routine concentration band tuning for the diversified EMEA sleeve."},
	{102, -21, universe.TechAPAC, "", universe.LimitVAR, "2.4", "2.3",
		"Quarterly VAR refresh for APAC tech exposure."},
	{201, 0, universe.GrowthUS, universe.Semiconductors, universe.LimitVAR, "2.5", "2.1",
		"VAR bands tightened after a 3-sigma spike in options-implied vol on semis exposure."},
	{202, 0, universe.GrowthUS, universe.Semiconductors, universe.LimitGamma, "1.8", "1.4",
		"Gamma threshold reduced on elevated option greeks to curb tail risk."},
	{203, 22, universe.GrowthUS, "", universe.LimitConcentration, "0.14", "0.13",
		"Post-event concentration trim for liquidity flexibility."},
	{204, 65, universe.CoreEMEA, universe.Software, universe.LimitGamma, "2.0", "1.9",
		"Software gamma fine-tune after quarterly review."},
	{205, 104, universe.TechAPAC, universe.Hardware, universe.LimitVAR, "2.3", "2.2",
		"Hardware VAR minor tightening to align with the global framework."},
}

// PolicyChanges emits the curated change log. Only the change hour is random.
func (g *Generator) PolicyChanges(rng *stochastic.Stream) *dataset.Frame[dataset.PolicyChange] {
	pivot := g.sc.Windows.EventPivot
	rows := make([]dataset.PolicyChange, 0, len(PolicySchedule))
	for _, p := range PolicySchedule {
		d := pivot.AddDate(0, 0, p.OffsetDays)
		var sector *string
		if p.Sector != "" {
			s := p.Sector
			sector = &s
		}
		rows = append(rows, dataset.PolicyChange{
			PolicyID:     fmt.Sprintf("POL-%s-%03d", d.Format("20060102"), p.Seq),
			ChangeDate:   floorTime(d.Add(time.Duration(rng.IntRange(8, 12)) * time.Hour)),
			ScopeSleeve:  p.Sleeve,
			ScopeSector:  sector,
			LimitType:    p.LimitType,
			OldThreshold: decimal.RequireFromString(p.Old),
			NewThreshold: decimal.RequireFromString(p.New),
			Notes:        p.Notes,
		})
	}

	g.logger.Info().Int("rows", len(rows)).Msg("policy changes generated")
	return dataset.NewFrame(dataset.PolicyChangesTable, dataset.PolicyChangeColumns, rows)
}
