package generator

import (
	"math"
	"time"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/scenario"
	"portfolio-scenario-gen/internal/stochastic"
	"portfolio-scenario-gen/internal/universe"
)

// PivotVolatilityFloor bounds the baseline median used for the pivot target.
const PivotVolatilityFloor = 0.10

// factorSeries holds one ticker's five score series, aligned with days.
type factorSeries struct {
	momentum  []float64
	quality   []float64
	valuation []float64
	vol       []float64
	sentiment []float64
}

// IsEarningsDay marks the approximate quarterly earnings windows.
func IsEarningsDay(d time.Time) bool {
	switch d.Month() {
	case time.January, time.April, time.July, time.October:
		return d.Day() >= 20 && d.Day() <= 28
	}
	return false
}

// FactorVectors emits one row per (ticker, trading day) of the full range.
func (g *Generator) FactorVectors(rng *stochastic.Stream) *dataset.Frame[dataset.FactorVector] {
	days := g.sc.FullDays()
	u := g.sc.Universe
	g.logger.Info().Int("tickers", len(u.Tickers)).Int("days", len(days)).Msg("generating factor vectors")

	rows := make([]dataset.FactorVector, 0, len(u.Tickers)*len(days))
	prog := newProgress(g.logger, "tickers", len(u.Tickers))
	for i, ticker := range u.Tickers {
		prog.step(i)

		s, sentBase := g.baselineFactors(rng, ticker, days)
		if profile, ok := g.sc.Profile(ticker); ok {
			applyFactorOverlay(rng, g.sc.Windows, profile, days, s, sentBase)
		}

		for k, d := range days {
			rows = append(rows, dataset.FactorVector{
				Ticker:             ticker,
				Date:               floorTime(d),
				MomentumScore:      s.momentum[k],
				EarningsQuality:    s.quality[k],
				ValuationScore:     s.valuation[k],
				VolatilityScore:    s.vol[k],
				NewsSentimentScore: s.sentiment[k],
			})
		}
	}

	g.logger.Info().Int("rows", len(rows)).Msg("factor vectors generated")
	return dataset.NewFrame(dataset.FactorVectorsTable, dataset.FactorVectorColumns, rows)
}

func clipScore(v float64) float64 {
	return stochastic.Clip(v, ScoreMin, ScoreMax)
}

func (g *Generator) baselineFactors(rng *stochastic.Stream, ticker string, days []time.Time) (*factorSeries, float64) {
	n := len(days)
	sector := g.sc.Universe.Sector(ticker)
	p := g.sc.Universe.SectorParams[sector]
	_, isEventTicker := g.sc.Profile(ticker)

	s := &factorSeries{
		momentum:  make([]float64, n),
		quality:   make([]float64, n),
		valuation: make([]float64, n),
		vol:       make([]float64, n),
		sentiment: make([]float64, n),
	}

	volBase := stochastic.Clip(rng.Normal(0.45, 0.07), 0.20, 0.70)
	for k := range days {
		s.vol[k] = clipScore(volBase * (0.9 + 0.2*rng.LogNormal(0, p.VolTailSigma)))
	}

	momMean := 0.50
	if isEventTicker {
		momMean = 0.55
	}
	momBase := stochastic.Clip(rng.Normal(momMean, 0.05), 0.25, 0.75)
	for k, d := range days {
		s.momentum[k] = clipScore(rng.LogNormal(math.Log(momBase), 0.20))
		if IsEarningsDay(d) {
			s.momentum[k] = clipScore(s.momentum[k] * rng.Uniform(1.2, 1.6))
		}
	}

	qualityBase := stochastic.Clip(rng.Normal(p.QualityMean, p.QualitySD), 0.30, 0.90)
	for k := range days {
		s.quality[k] = clipScore(qualityBase + rng.Normal(0, p.QualitySD))
	}

	valMean := 0.52
	if sector == universe.Semiconductors {
		valMean = 0.48
	}
	valBase := stochastic.Clip(rng.Normal(valMean, 0.06), 0.25, 0.75)
	for k := range days {
		s.valuation[k] = clipScore(valBase + rng.Normal(0, 0.05))
	}

	sentBase := stochastic.Clip(rng.Normal(0.55, 0.08), 0.25, 0.80)
	for k, d := range days {
		s.sentiment[k] = clipScore(rng.Normal(sentBase, 0.18))
		if IsEarningsDay(d) {
			s.sentiment[k] = clipScore(s.sentiment[k] * rng.Uniform(1.05, 1.25))
		}
	}

	return s, sentBase
}

// BaselineVolatility is the pivot reference: the median volatility over the
// pre-event lookback, floored at PivotVolatilityFloor.
func BaselineVolatility(w scenario.Windows, days []time.Time, vol []float64) float64 {
	window := make([]float64, 0, 64)
	for k, d := range days {
		if w.InBaseline(d) {
			window = append(window, vol[k])
		}
	}
	m := stochastic.Median(window)
	if math.IsNaN(m) || m < PivotVolatilityFloor {
		return PivotVolatilityFloor
	}
	return m
}

// PivotVolatility is the forced pivot-day score for a baseline and multiple.
func PivotVolatility(baseline, multiple float64) float64 {
	return clipScore(baseline * multiple)
}

// applyFactorOverlay injects the event anomaly. Every step clips, so a
// multiplicative boost can never leave the score bounds.
func applyFactorOverlay(rng *stochastic.Stream, w scenario.Windows, p scenario.EventProfile, days []time.Time, s *factorSeries, sentBase float64) {
	baseline := BaselineVolatility(w, days, s.vol)

	volBoost := rng.Uniform(p.VolBoost.Lo, p.VolBoost.Hi)
	for k, d := range days {
		if w.InEvent(d) {
			s.vol[k] = clipScore(s.vol[k] * volBoost)
		}
	}
	for k, d := range days {
		if w.IsPivot(d) {
			s.vol[k] = PivotVolatility(baseline, p.PivotMultiple)
		}
	}

	momBoost := rng.Uniform(p.MomentumBoost.Lo, p.MomentumBoost.Hi)
	for k, d := range days {
		if !w.InEvent(d) {
			continue
		}
		s.momentum[k] = clipScore(s.momentum[k] * momBoost)
		s.quality[k] = clipScore(s.quality[k] * p.QualityDiscount)
		s.sentiment[k] = clipScore(rng.Normal(sentBase*p.SentimentMeanScale, p.SentimentSigma))
	}
}
