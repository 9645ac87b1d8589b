package generator

import (
	"fmt"
	"math"
	"time"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/stochastic"
	"portfolio-scenario-gen/internal/universe"
)

const (
	// MinLot is the smallest quantity a position may hold.
	MinLot = 1000
	// ConcentrationThreshold is the share of sleeve market value above which
	// a position is flagged.
	ConcentrationThreshold = 0.12
)

// SleeveMarketValues returns the sleeve's daily market value path: a slow
// drift, the post-pivot drawdown and the July recovery.
func (g *Generator) SleeveMarketValues(sleeve string, days []time.Time) []float64 {
	w := g.sc.Windows
	base := g.sc.Universe.SleeveBaseMV[sleeve]
	drift := stochastic.Linspace(-0.02, 0.03, len(days))

	drop := g.sc.Stress.DrawdownOthers
	if sleeve == g.sc.Stress.Sleeve {
		drop = g.sc.Stress.Drawdown
	}

	mv := make([]float64, len(days))
	recovering := 0
	for k, d := range days {
		mv[k] = base * (1 + drift[k])
		if w.InDrawdown(d) {
			mv[k] *= 1 + drop
		}
		if w.InRecovery(d) {
			recovering++
		}
	}

	ramp := stochastic.Linspace(0, 0.012, recovering)
	r := 0
	for k, d := range days {
		if w.InRecovery(d) {
			mv[k] *= 0.995 + ramp[r]
			r++
		}
	}
	return mv
}

// Positions emits one row per (sleeve, ticker, trading day) of the impact
// window, sleeve-major.
func (g *Generator) Positions(rng *stochastic.Stream) *dataset.Frame[dataset.Position] {
	days := g.sc.ImpactDays()
	u := g.sc.Universe
	g.logger.Info().Int("sleeves", len(u.Sleeves)).Int("days", len(days)).Msg("generating positions")

	rows := make([]dataset.Position, 0, len(u.Sleeves)*len(u.Tickers)*len(days))
	prog := newProgress(g.logger, "sleeves", len(u.Sleeves))
	for i, sleeve := range u.Sleeves {
		prog.step(i)
		rows = append(rows, g.sleevePositions(rng, sleeve, days)...)
	}

	g.logger.Info().Int("rows", len(rows)).Msg("positions generated")
	return dataset.NewFrame(dataset.PositionsTable, dataset.PositionColumns, rows)
}

func (g *Generator) sleevePositions(rng *stochastic.Stream, sleeve string, days []time.Time) []dataset.Position {
	u := g.sc.Universe
	w := g.sc.Windows
	weights := u.NormalizedWeights(sleeve)
	sleeveMV := g.SleeveMarketValues(sleeve, days)

	// Draw every ticker's noise before overlays, day-major like the sleeve path.
	tickerMV := make([][]float64, len(u.Tickers))
	for j := range u.Tickers {
		tickerMV[j] = make([]float64, len(days))
	}
	for k := range days {
		for j := range u.Tickers {
			tickerMV[j][k] = sleeveMV[k] * weights[j] * rng.LogNormal(0, 0.12)
		}
	}

	qty := make([][]int64, len(u.Tickers))
	for j, ticker := range u.Tickers {
		price := u.PriceScale[ticker]
		qty[j] = make([]int64, len(days))
		for k := range days {
			qty[j][k] = lotFloor(tickerMV[j][k] / price)
		}

		if !g.sc.IsStressedPosition(sleeve, ticker) {
			continue
		}
		factor := rng.Uniform(g.sc.Stress.DeRiskFactor.Lo, g.sc.Stress.DeRiskFactor.Hi)
		for k, d := range days {
			if !w.InDeRisk(d) {
				continue
			}
			qty[j][k] = lotFloor(float64(qty[j][k]) * factor)
			tickerMV[j][k] = float64(qty[j][k]) * price
		}
	}

	// Concentration is measured against the stored MVs, after every overlay.
	totals := make([]float64, len(days))
	for k := range days {
		for j := range u.Tickers {
			totals[k] += tickerMV[j][k]
		}
	}

	code := universe.SleeveCode(sleeve)
	out := make([]dataset.Position, 0, len(u.Tickers)*len(days))
	for j, ticker := range u.Tickers {
		sector := u.Sector(ticker)
		greeks := u.Greeks[sector]
		for k, d := range days {
			out = append(out, dataset.Position{
				PositionID:        PositionID(d, code, ticker, k+1),
				Date:              floorTime(d),
				Ticker:            ticker,
				Sleeve:            sleeve,
				Sector:            sector,
				Quantity:          qty[j][k],
				MarketValueUSD:    tickerMV[j][k],
				Delta:             greeks.Delta,
				Beta:              greeks.Beta,
				ConcentrationFlag: IsConcentrated(tickerMV[j][k], totals[k]),
			})
		}
	}
	return out
}

// PositionID formats "POS-yyyymmdd-SS-TICKER-kkkk".
func PositionID(d time.Time, sleeveCode, ticker string, seq int) string {
	return fmt.Sprintf("POS-%s-%s-%s-%04d", d.Format("20060102"), sleeveCode, ticker, seq)
}

// IsConcentrated reports whether mv exceeds ConcentrationThreshold of total.
func IsConcentrated(mv, total float64) bool {
	if total <= 0 {
		return false
	}
	return mv/total > ConcentrationThreshold
}

func lotFloor(v float64) int64 {
	q := int64(math.Floor(v))
	if q < MinLot {
		return MinLot
	}
	return q
}
