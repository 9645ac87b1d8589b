package generator

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/scenario"
	"portfolio-scenario-gen/internal/stochastic"
	"portfolio-scenario-gen/internal/universe"
)

func TestSleeveMarketValuePath(t *testing.T) {
	g, sc := newTestGenerator(t, 42)
	days := sc.ImpactDays()
	drift := stochastic.Linspace(-0.02, 0.03, len(days))

	for _, sleeve := range sc.Universe.Sleeves {
		mv := g.SleeveMarketValues(sleeve, days)
		base := sc.Universe.SleeveBaseMV[sleeve]
		for k, d := range days {
			ratio := mv[k] / (base * (1 + drift[k]))
			switch {
			case sc.Windows.InDrawdown(d) && !sc.Windows.InRecovery(d):
				want := 1 + sc.Stress.DrawdownOthers
				if sleeve == sc.Stress.Sleeve {
					want = 1 + sc.Stress.Drawdown
				}
				assert.InDelta(t, want, ratio, 1e-9, "%s %s", sleeve, d.Format(time.DateOnly))
			case !sc.Windows.InDrawdown(d) && !sc.Windows.InRecovery(d):
				assert.InDelta(t, 1.0, ratio, 1e-9)
			}
		}
	}
}

func TestPositionsOverlayInvariants(t *testing.T) {
	g, sc := newTestGenerator(t, 42)
	frame := g.Positions(sc.Stream(dataset.PositionsTable))
	u := sc.Universe

	days := sc.ImpactDays()
	require.Equal(t, len(u.Sleeves)*len(u.Tickers)*len(days), frame.Len())

	totals := make(map[string]float64)
	for _, r := range frame.Rows {
		totals[r.Sleeve+r.Date.Format(time.DateOnly)] += r.MarketValueUSD
	}

	derisked := 0
	for _, r := range frame.Rows {
		assert.GreaterOrEqual(t, r.Quantity, int64(MinLot))
		assert.Equal(t, u.Sector(r.Ticker), r.Sector)
		assert.Equal(t, u.Greeks[r.Sector].Beta, r.Beta)
		assert.True(t, strings.HasPrefix(r.PositionID, "POS-"+r.Date.Format("20060102")+"-"+universe.SleeveCode(r.Sleeve)+"-"+r.Ticker+"-"))

		if sc.IsStressedPosition(r.Sleeve, r.Ticker) && sc.Windows.InDeRisk(r.Date) {
			derisked++
			assert.InDelta(t, float64(r.Quantity)*u.PriceScale[r.Ticker], r.MarketValueUSD, 1e-6)
		}

		want := r.MarketValueUSD/totals[r.Sleeve+r.Date.Format(time.DateOnly)] > ConcentrationThreshold
		assert.Equal(t, want, r.ConcentrationFlag, r.PositionID)
	}
	assert.Positive(t, derisked)
}

func TestPositionIDFormat(t *testing.T) {
	got := PositionID(scenario.Date(2025, time.June, 18), "GR", "NVDA", 7)
	assert.Equal(t, "POS-20250618-GR-NVDA-0007", got)
}

func TestIsConcentrated(t *testing.T) {
	assert.True(t, IsConcentrated(13, 100))
	assert.False(t, IsConcentrated(12, 100))
	assert.False(t, IsConcentrated(5, 0))
}

func TestOrdersIdsAndCounts(t *testing.T) {
	g, sc := newTestGenerator(t, 42)
	frame := g.Orders(sc.Stream(dataset.OrdersTable))
	require.NotZero(t, frame.Len())

	counts := make(map[string]int)
	for i, r := range frame.Rows {
		assert.Equal(t, fmt.Sprintf("ORD-%08d", i+1), r.OrderID)
		assert.True(t, r.Date.Equal(r.Timestamp.Truncate(24*time.Hour)), r.OrderID)
		assert.GreaterOrEqual(t, r.Timestamp.Hour(), 9)
		assert.LessOrEqual(t, r.Timestamp.Hour(), 15)
		assert.GreaterOrEqual(t, r.FillQty, int64(100))
		assert.Equal(t, "NASDAQ", r.Venue)
		if r.ParentOrderID != nil {
			assert.Regexp(t, `^PORD-\d{6}$`, *r.ParentOrderID)
		}
		counts[r.Date.Format(time.DateOnly)+r.Sleeve+r.Ticker]++
	}

	pivot := sc.Windows.EventPivot.Format(time.DateOnly)
	assert.Equal(t, 60, counts[pivot+universe.GrowthUS+"NVDA"])
	assert.Equal(t, 37, counts[pivot+universe.GrowthUS+"MSFT"])
	assert.Equal(t, 26, counts[pivot+universe.CoreEMEA+"NVDA"])
	assert.Equal(t, 45, counts["2025-07-01"+universe.GrowthUS+"NVDA"])
}

func TestOrdersEventShiftsExecution(t *testing.T) {
	g, sc := newTestGenerator(t, 42)
	frame := g.Orders(sc.Stream(dataset.OrdersTable))

	var eventSlip, baseSlip []float64
	var eventSemiSells, eventSemis int
	for _, r := range frame.Rows {
		if sc.Windows.InEvent(r.Date) {
			eventSlip = append(eventSlip, r.SlippageBps)
			if sc.IsStressedSector(r.Ticker) {
				eventSemis++
				if r.Side == dataset.SideSell {
					eventSemiSells++
				}
			}
			continue
		}
		if r.Date.Before(sc.Windows.EventStart) {
			baseSlip = append(baseSlip, r.SlippageBps)
		}
	}
	require.NotEmpty(t, eventSlip)
	require.NotEmpty(t, baseSlip)
	assert.Greater(t, stochastic.Mean(eventSlip), stochastic.Mean(baseSlip)+4)
	assert.Greater(t, float64(eventSemiSells)/float64(eventSemis), 0.58)
}

func TestPolicyChangesAnchoredOnPivot(t *testing.T) {
	g, sc := newTestGenerator(t, 42)
	frame := g.PolicyChanges(sc.Stream(dataset.PolicyChangesTable))
	require.Len(t, frame.Rows, len(PolicySchedule))

	pivotTightenings := 0
	for _, r := range frame.Rows {
		assert.True(t, r.Tightening(), r.PolicyID)
		assert.Regexp(t, `^POL-\d{8}-\d{3}$`, r.PolicyID)
		h := r.ChangeDate.Hour()
		assert.True(t, h >= 8 && h <= 11, "change hour %d", h)
		assert.Contains(t, sc.Universe.LimitTypes, r.LimitType)

		if r.ChangeDate.Truncate(24 * time.Hour).Equal(sc.Windows.EventPivot) {
			pivotTightenings++
			require.NotNil(t, r.ScopeSector)
			assert.Equal(t, universe.Semiconductors, *r.ScopeSector)
			assert.Equal(t, universe.GrowthUS, r.ScopeSleeve)
		}
	}
	assert.Equal(t, 2, pivotTightenings)
	assert.Equal(t, "POL-20250515-101", frame.Rows[0].PolicyID)
	assert.Nil(t, frame.Rows[0].ScopeSector)
}

func TestBreachesClusterAndBounds(t *testing.T) {
	g, sc := newTestGenerator(t, 42)
	frame := g.Breaches(sc.Stream(dataset.BreachesTable))

	days := sc.ImpactDays()
	require.Equal(t, len(days)*len(sc.Universe.Sleeves)*len(sc.Universe.LimitTypes), frame.Len())

	keys := make(map[string]bool)
	var cluster, outside []float64
	for _, r := range frame.Rows {
		key := r.Date.Format(time.DateOnly) + r.Sleeve + r.LimitType
		assert.False(t, keys[key])
		keys[key] = true

		assert.GreaterOrEqual(t, r.BreachCount, int64(0))
		assert.GreaterOrEqual(t, r.SeverityScore, SeverityMin)
		assert.LessOrEqual(t, r.SeverityScore, SeverityMax)
		assert.Regexp(t, `^BR-\d{8}-[A-Z]{2}-\w+-\d{4}$`, r.BreachID)

		if r.Sleeve != sc.Stress.Sleeve || !sc.IsStressedLimit(r.LimitType) {
			continue
		}
		if g.InBreachCluster(r.Date, r.Sleeve, r.LimitType) {
			assert.Contains(t, []int64{3, 4, 5}, r.BreachCount)
			assert.GreaterOrEqual(t, r.SeverityScore, ClusterSeverityMin)
			cluster = append(cluster, float64(r.BreachCount))
		} else {
			outside = append(outside, float64(r.BreachCount))
		}
	}
	// June 18 and June 20; June 19 is a holiday.
	assert.Len(t, cluster, 4)
	assert.Greater(t, stochastic.Mean(cluster), stochastic.Mean(outside))
}
