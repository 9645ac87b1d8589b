// Package qa recomputes the scenario's target metrics from the generated
// tables and enforces the cross-table invariants.
package qa

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/generator"
	"portfolio-scenario-gen/internal/scenario"
	"portfolio-scenario-gen/internal/stochastic"
)

// Check names.
const (
	CheckMissingTable       = "missing_table"
	CheckReferential        = "referential_integrity"
	CheckFactorBounds       = "factor_bounds"
	CheckFactorCompleteness = "factor_completeness"
	CheckPivotVolatility    = "pivot_volatility"
	CheckMinLot             = "min_lot"
	CheckMarketValue        = "mv_identity"
	CheckConcentration      = "concentration_flag"
	CheckOrderIDs           = "order_ids"
	CheckOrderDate          = "order_date"
	CheckSlippageDirection  = "slippage_direction"
	CheckPolicyTightening   = "policy_tightening"
	CheckBreachBounds       = "breach_bounds"
	CheckBreachKeys         = "breach_keys"
	CheckBreachCluster      = "breach_cluster"
)

// Options tune the validator.
type Options struct {
	// Tolerance is the relative band around ratio targets.
	Tolerance float64
	// MaxSamples caps the sample messages kept per failed check.
	MaxSamples int
}

// DefaultOptions returns a 15 % band and five samples per check.
func DefaultOptions() Options {
	return Options{Tolerance: 0.15, MaxSamples: 5}
}

// Validator checks a complete set of tables against its scenario.
type Validator struct {
	opts   Options
	logger zerolog.Logger
}

// NewValidator constructs a Validator, filling zero options with defaults.
func NewValidator(opts Options, logger zerolog.Logger) *Validator {
	def := DefaultOptions()
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = def.MaxSamples
	}
	return &Validator{opts: opts, logger: logger.With().Str("component", "qa").Logger()}
}

// Validate runs every metric and invariant. It never fails itself; callers
// decide what to do with Report.Err.
func (v *Validator) Validate(sc *scenario.Context, t *dataset.Tables) *Report {
	r := newReport(sc.RunID().String(), v.opts.MaxSamples)
	if t == nil {
		t = &dataset.Tables{}
	}

	if t.FactorVectors == nil {
		r.violate(CheckMissingTable, "%s not produced", dataset.FactorVectorsTable)
	} else {
		v.checkFactors(r, sc, t.FactorVectors.Rows)
	}
	if t.Positions == nil {
		r.violate(CheckMissingTable, "%s not produced", dataset.PositionsTable)
	} else {
		v.checkPositions(r, sc, t.Positions.Rows)
	}
	if t.Orders == nil {
		r.violate(CheckMissingTable, "%s not produced", dataset.OrdersTable)
	} else {
		v.checkOrders(r, sc, t.Orders.Rows)
	}
	if t.PolicyChanges == nil {
		r.violate(CheckMissingTable, "%s not produced", dataset.PolicyChangesTable)
	} else {
		v.checkPolicy(r, sc, t.PolicyChanges.Rows)
	}
	if t.Breaches == nil {
		r.violate(CheckMissingTable, "%s not produced", dataset.BreachesTable)
	} else {
		v.checkBreaches(r, sc, t.Breaches.Rows)
	}

	event := v.logger.Info()
	if !r.OK() {
		event = v.logger.Warn()
	}
	event.Int("findings", len(r.Findings)).
		Int("out_of_band", r.OutOfBand()).
		Int("failed_checks", len(r.Violations)).
		Msg("qa validation complete")
	return r
}

func (v *Validator) ratioTarget(target float64) string {
	return fmt.Sprintf("%.2f ±%.0f%%", target, v.opts.Tolerance*100)
}

func (v *Validator) nearRatio(value, target float64) bool {
	return math.Abs(value-target) <= v.opts.Tolerance*math.Abs(target)
}

func dayKey(d time.Time) int64 {
	return d.Unix()
}

func (v *Validator) checkFactors(r *Report, sc *scenario.Context, rows []dataset.FactorVector) {
	u := sc.Universe
	w := sc.Windows
	days := sc.FullDays()

	type key struct {
		ticker string
		day    int64
	}
	seen := make(map[key]struct{}, len(rows))
	byTicker := make(map[string][]dataset.FactorVector, len(u.Tickers))
	for _, row := range rows {
		if !u.HasTicker(row.Ticker) {
			r.violate(CheckReferential, "factor row for unknown ticker %s", row.Ticker)
			continue
		}
		scores := []struct {
			name string
			val  float64
		}{
			{"momentum_score", row.MomentumScore},
			{"earnings_quality_score", row.EarningsQuality},
			{"valuation_score", row.ValuationScore},
			{"volatility_score", row.VolatilityScore},
			{"news_sentiment_score", row.NewsSentimentScore},
		}
		for _, s := range scores {
			if s.val < generator.ScoreMin || s.val > generator.ScoreMax || math.IsNaN(s.val) {
				r.violate(CheckFactorBounds, "%s %s %s=%.4f", row.Ticker, row.Date.Format(time.DateOnly), s.name, s.val)
			}
		}
		k := key{row.Ticker, dayKey(row.Date)}
		if _, dup := seen[k]; dup {
			r.violate(CheckFactorCompleteness, "duplicate row %s %s", row.Ticker, row.Date.Format(time.DateOnly))
			continue
		}
		seen[k] = struct{}{}
		byTicker[row.Ticker] = append(byTicker[row.Ticker], row)
	}
	for _, ticker := range u.Tickers {
		if got := len(byTicker[ticker]); got != len(days) {
			r.violate(CheckFactorCompleteness, "%s has %d rows, want %d", ticker, got, len(days))
		}
	}

	for _, p := range sc.Events {
		series := byTicker[p.Ticker]
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

		dates := make([]time.Time, len(series))
		vol := make([]float64, len(series))
		pivot := math.NaN()
		var eventQ, baseQ []float64
		for i, row := range series {
			dates[i] = row.Date
			vol[i] = row.VolatilityScore
			if w.IsPivot(row.Date) {
				pivot = row.VolatilityScore
			}
			if w.InEvent(row.Date) {
				eventQ = append(eventQ, row.EarningsQuality)
			} else if w.InBaseline(row.Date) {
				baseQ = append(baseQ, row.EarningsQuality)
			}
		}

		if math.IsNaN(pivot) {
			r.violate(CheckPivotVolatility, "%s has no row on %s", p.Ticker, w.EventPivot.Format(time.DateOnly))
			continue
		}
		baseline := generator.BaselineVolatility(w, dates, vol)
		want := generator.PivotVolatility(baseline, p.PivotMultiple)
		if math.Abs(pivot-want) > 1e-9 {
			r.violate(CheckPivotVolatility, "%s pivot volatility %.6f, want %.6f (baseline %.6f × %.2f)",
				p.Ticker, pivot, want, baseline, p.PivotMultiple)
		}
		ratio := pivot / baseline
		clipped := pivot >= generator.ScoreMax
		r.find(fmt.Sprintf("volatility_ratio[%s]", p.Ticker), ratio, v.ratioTarget(p.PivotMultiple),
			v.nearRatio(ratio, p.PivotMultiple) || clipped)

		qRatio := stochastic.Mean(eventQ) / stochastic.Mean(baseQ)
		r.find(fmt.Sprintf("quality_ratio[%s]", p.Ticker), qRatio, v.ratioTarget(p.QualityDiscount),
			v.nearRatio(qRatio, p.QualityDiscount))
	}
}

func (v *Validator) checkPositions(r *Report, sc *scenario.Context, rows []dataset.Position) {
	u := sc.Universe
	w := sc.Windows

	type key struct {
		sleeve string
		day    int64
	}
	totals := make(map[key]float64)
	for _, row := range rows {
		totals[key{row.Sleeve, dayKey(row.Date)}] += row.MarketValueUSD
	}

	var deRisk, before []float64
	for _, row := range rows {
		if !u.HasTicker(row.Ticker) || !u.HasSleeve(row.Sleeve) {
			r.violate(CheckReferential, "position %s references %s/%s", row.PositionID, row.Sleeve, row.Ticker)
			continue
		}
		if row.Sector != u.Sector(row.Ticker) {
			r.violate(CheckReferential, "position %s sector %s, want %s", row.PositionID, row.Sector, u.Sector(row.Ticker))
		}
		if row.Quantity < generator.MinLot {
			r.violate(CheckMinLot, "position %s quantity %d", row.PositionID, row.Quantity)
		}

		if sc.IsStressedPosition(row.Sleeve, row.Ticker) {
			switch {
			case w.InDeRisk(row.Date):
				deRisk = append(deRisk, float64(row.Quantity))
				want := float64(row.Quantity) * u.PriceScale[row.Ticker]
				if math.Abs(row.MarketValueUSD-want) > 1e-6*math.Max(1, want) {
					r.violate(CheckMarketValue, "position %s mv %.2f, want %.2f", row.PositionID, row.MarketValueUSD, want)
				}
			case w.InBaseline(row.Date):
				before = append(before, float64(row.Quantity))
			}
		}

		flag := generator.IsConcentrated(row.MarketValueUSD, totals[key{row.Sleeve, dayKey(row.Date)}])
		if flag != row.ConcentrationFlag {
			r.violate(CheckConcentration, "position %s flag %t, recomputed %t", row.PositionID, row.ConcentrationFlag, flag)
		}
	}

	if len(deRisk) > 0 && len(before) > 0 {
		lo, hi := sc.Stress.DeRiskFactor.Lo, sc.Stress.DeRiskFactor.Hi
		ratio := stochastic.Mean(deRisk) / stochastic.Mean(before)
		r.find(fmt.Sprintf("derisk_quantity_ratio[%s]", sc.Stress.Sleeve), ratio,
			fmt.Sprintf("%.2f-%.2f", lo, hi),
			ratio >= lo*(1-v.opts.Tolerance) && ratio <= hi*(1+v.opts.Tolerance))
	}
}

func isMarketable(orderType string) bool {
	return orderType == dataset.OrderMarket || orderType == dataset.OrderMarketableLimit
}

func (v *Validator) checkOrders(r *Report, sc *scenario.Context, rows []dataset.Order) {
	u := sc.Universe
	w := sc.Windows

	var baseSlip, eventSlip []float64
	var baseMarketable, eventMarketable, baseN, eventN int
	stressedDaily := make(map[int64]int)
	for i, row := range rows {
		if want := generator.OrderID(i + 1); row.OrderID != want {
			r.violate(CheckOrderIDs, "row %d has id %s, want %s", i, row.OrderID, want)
		}
		if !row.Date.Equal(row.Timestamp.UTC().Truncate(24 * time.Hour)) {
			r.violate(CheckOrderDate, "order %s date %s does not floor timestamp %s", row.OrderID,
				row.Date.Format(time.DateOnly), row.Timestamp.Format(time.RFC3339))
		}
		if !u.HasTicker(row.Ticker) || !u.HasSleeve(row.Sleeve) {
			r.violate(CheckReferential, "order %s references %s/%s", row.OrderID, row.Sleeve, row.Ticker)
		}

		if row.Sleeve == sc.Stress.Sleeve {
			stressedDaily[dayKey(row.Date)]++
		}
		switch {
		case w.InEvent(row.Date):
			eventSlip = append(eventSlip, row.SlippageBps)
			eventN++
			if isMarketable(row.OrderType) {
				eventMarketable++
			}
		case row.Date.Before(w.EventStart):
			baseSlip = append(baseSlip, row.SlippageBps)
			baseN++
			if isMarketable(row.OrderType) {
				baseMarketable++
			}
		}
	}

	if baseN == 0 || eventN == 0 {
		r.violate(CheckSlippageDirection, "need orders before and during the event, got %d and %d", baseN, eventN)
		return
	}

	base, event := stochastic.Mean(baseSlip), stochastic.Mean(eventSlip)
	r.find("slippage_bps[baseline]", base, "9-12", base >= 9 && base <= 12)
	r.find("slippage_bps[event]", event, "≈18", v.nearRatio(event, 18))
	if !(event > base) {
		r.violate(CheckSlippageDirection, "event slippage %.2f bps not above baseline %.2f bps", event, base)
	}

	bShare := float64(baseMarketable) / float64(baseN)
	eShare := float64(eventMarketable) / float64(eventN)
	r.find("marketable_share[baseline]", bShare, v.ratioTarget(0.50), v.nearRatio(bShare, 0.50))
	r.find("marketable_share[event]", eShare, v.ratioTarget(0.70), v.nearRatio(eShare, 0.70))

	var baseDays, eventDays []float64
	for k, n := range stressedDaily {
		d := time.Unix(k, 0).UTC()
		switch {
		case w.InEvent(d):
			eventDays = append(eventDays, float64(n))
		case d.Before(w.EventStart):
			baseDays = append(baseDays, float64(n))
		}
	}
	if len(baseDays) > 0 && len(eventDays) > 0 {
		turnover := stochastic.Mean(eventDays) / stochastic.Mean(baseDays)
		r.find(fmt.Sprintf("turnover_ratio[%s]", sc.Stress.Sleeve), turnover,
			v.ratioTarget(sc.Stress.TurnoverMultiplier), v.nearRatio(turnover, sc.Stress.TurnoverMultiplier))
	}
}

func (v *Validator) checkPolicy(r *Report, sc *scenario.Context, rows []dataset.PolicyChange) {
	u := sc.Universe
	limits := make(map[string]bool, len(u.LimitTypes))
	for _, l := range u.LimitTypes {
		limits[l] = true
	}

	pivotTightened := make(map[string]bool)
	for _, row := range rows {
		if !u.HasSleeve(row.ScopeSleeve) || !limits[row.LimitType] {
			r.violate(CheckReferential, "policy %s scope %s/%s", row.PolicyID, row.ScopeSleeve, row.LimitType)
		}
		if row.ScopeSector != nil {
			if _, ok := u.Greeks[*row.ScopeSector]; !ok {
				r.violate(CheckReferential, "policy %s unknown sector %s", row.PolicyID, *row.ScopeSector)
			}
		}
		onPivot := row.ChangeDate.UTC().Truncate(24 * time.Hour).Equal(sc.Windows.EventPivot)
		if onPivot && row.ScopeSleeve == sc.Stress.Sleeve && row.Tightening() {
			pivotTightened[row.LimitType] = true
		}
	}

	for _, l := range sc.Stress.LimitTypes {
		if !pivotTightened[l] {
			r.violate(CheckPolicyTightening, "no %s tightening for %s on %s", l, sc.Stress.Sleeve,
				sc.Windows.EventPivot.Format(time.DateOnly))
		}
	}
	r.find("pivot_tightenings", float64(len(pivotTightened)), fmt.Sprintf("%d", len(sc.Stress.LimitTypes)),
		len(pivotTightened) == len(sc.Stress.LimitTypes))
}

func (v *Validator) checkBreaches(r *Report, sc *scenario.Context, rows []dataset.Breach) {
	u := sc.Universe
	w := sc.Windows
	days := sc.ImpactDays()

	type key struct {
		day    int64
		sleeve string
		limit  string
	}
	seen := make(map[key]struct{}, len(rows))
	var cluster, outside []float64
	for _, row := range rows {
		if !u.HasSleeve(row.Sleeve) {
			r.violate(CheckReferential, "breach %s references sleeve %s", row.BreachID, row.Sleeve)
		}
		if row.BreachCount < 0 || row.SeverityScore < generator.SeverityMin || row.SeverityScore > generator.SeverityMax {
			r.violate(CheckBreachBounds, "breach %s count %d severity %.4f", row.BreachID, row.BreachCount, row.SeverityScore)
		}
		k := key{dayKey(row.Date), row.Sleeve, row.LimitType}
		if _, dup := seen[k]; dup {
			r.violate(CheckBreachKeys, "duplicate %s/%s on %s", row.Sleeve, row.LimitType, row.Date.Format(time.DateOnly))
		}
		seen[k] = struct{}{}

		if row.Sleeve != sc.Stress.Sleeve || !sc.IsStressedLimit(row.LimitType) {
			continue
		}
		if w.InCluster(row.Date) {
			cluster = append(cluster, float64(row.BreachCount))
		} else {
			outside = append(outside, float64(row.BreachCount))
		}
	}
	if want := len(days) * len(u.Sleeves) * len(u.LimitTypes); len(seen) != want {
		r.violate(CheckBreachKeys, "%d distinct keys, want %d", len(seen), want)
	}

	total := 0.0
	for _, c := range cluster {
		total += c
	}
	r.find("cluster_breach_rows", float64(len(cluster)), "> 0", len(cluster) > 0)
	r.find("cluster_breach_total", total, "≈11", total >= 6 && total <= 20)

	if len(cluster) == 0 || len(outside) == 0 {
		r.violate(CheckBreachCluster, "cluster has %d rows, outside has %d", len(cluster), len(outside))
		return
	}
	in, out := stochastic.Mean(cluster), stochastic.Mean(outside)
	r.find("cluster_breach_mean", in, "> outside", in > out)
	r.find("outside_breach_mean", out, "≈0.3", v.nearRatio(out, 0.3))
	if !(in > out) {
		r.violate(CheckBreachCluster, "cluster mean %.2f not above outside mean %.2f", in, out)
	}
}
