package qa

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-scenario-gen/internal/calendar"
	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/generator"
	"portfolio-scenario-gen/internal/scenario"
	"portfolio-scenario-gen/internal/universe"
)

func generate(t *testing.T) (*scenario.Context, *dataset.Tables) {
	t.Helper()
	w := scenario.DefaultWindows()
	w.RangeStart = scenario.Date(2025, time.March, 3)
	w.RangeEnd = scenario.Date(2025, time.August, 29)
	w.ImpactStart = scenario.Date(2025, time.June, 2)
	w.ImpactEnd = scenario.Date(2025, time.August, 29)

	cal := calendar.NewService(nil, nil, zerolog.Nop())
	sc, err := scenario.New(universe.Default(), w, cal, 42)
	require.NoError(t, err)
	return sc, generator.New(sc, zerolog.Nop()).All()
}

func newTestValidator() *Validator {
	return NewValidator(Options{}, zerolog.Nop())
}

func TestGeneratedTablesPass(t *testing.T) {
	sc, tables := generate(t)
	report := newTestValidator().Validate(sc, tables)

	require.True(t, report.OK(), "violations: %+v", report.Violations)
	require.NoError(t, report.Err())
	assert.Equal(t, sc.RunID().String(), report.RunID)

	for _, metric := range []string{
		"volatility_ratio[NVDA]", "volatility_ratio[AMD]",
		"quality_ratio[NVDA]", "slippage_bps[event]",
		"marketable_share[event]", "turnover_ratio[Growth-US]",
		"cluster_breach_rows", "derisk_quantity_ratio[Growth-US]",
	} {
		_, ok := report.Finding(metric)
		assert.True(t, ok, metric)
	}

	vol, _ := report.Finding("volatility_ratio[NVDA]")
	assert.True(t, vol.Within)
	rows, _ := report.Finding("cluster_breach_rows")
	assert.Equal(t, 4.0, rows.Value)
}

func TestValidatorDetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		check  string
		tamper func(sc *scenario.Context, tb *dataset.Tables)
	}{
		{
			name:  "score out of bounds",
			check: CheckFactorBounds,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.FactorVectors.Rows[0].MomentumScore = 1.2
			},
		},
		{
			name:  "missing factor row",
			check: CheckFactorCompleteness,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.FactorVectors.Rows = tb.FactorVectors.Rows[1:]
			},
		},
		{
			name:  "pivot volatility moved",
			check: CheckPivotVolatility,
			tamper: func(sc *scenario.Context, tb *dataset.Tables) {
				for i, r := range tb.FactorVectors.Rows {
					if r.Ticker == "NVDA" && sc.Windows.IsPivot(r.Date) {
						tb.FactorVectors.Rows[i].VolatilityScore -= 0.01
					}
				}
			},
		},
		{
			name:  "de-risked market value drift",
			check: CheckMarketValue,
			tamper: func(sc *scenario.Context, tb *dataset.Tables) {
				for i, r := range tb.Positions.Rows {
					if sc.IsStressedPosition(r.Sleeve, r.Ticker) && sc.Windows.InDeRisk(r.Date) {
						tb.Positions.Rows[i].MarketValueUSD += 1e6
						return
					}
				}
			},
		},
		{
			name:  "concentration flag flipped",
			check: CheckConcentration,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Positions.Rows[0].ConcentrationFlag = !tb.Positions.Rows[0].ConcentrationFlag
			},
		},
		{
			name:  "quantity under lot",
			check: CheckMinLot,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Positions.Rows[3].Quantity = 10
			},
		},
		{
			name:  "order id gap",
			check: CheckOrderIDs,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Orders.Rows[5].OrderID = "ORD-99999999"
			},
		},
		{
			name:  "order date mismatch",
			check: CheckOrderDate,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Orders.Rows[0].Date = tb.Orders.Rows[0].Date.AddDate(0, 0, 1)
			},
		},
		{
			name:  "unknown sleeve",
			check: CheckReferential,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Orders.Rows[0].Sleeve = "Macro-LATAM"
			},
		},
		{
			name:  "pivot tightening removed",
			check: CheckPolicyTightening,
			tamper: func(sc *scenario.Context, tb *dataset.Tables) {
				kept := tb.PolicyChanges.Rows[:0]
				for _, r := range tb.PolicyChanges.Rows {
					if r.LimitType != universe.LimitGamma {
						kept = append(kept, r)
					}
				}
				tb.PolicyChanges.Rows = kept
			},
		},
		{
			name:  "duplicate breach key",
			check: CheckBreachKeys,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Breaches.Rows[1] = tb.Breaches.Rows[0]
			},
		},
		{
			name:  "severity out of bounds",
			check: CheckBreachBounds,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Breaches.Rows[0].SeverityScore = 0
			},
		},
		{
			name:  "breach cluster flattened",
			check: CheckBreachCluster,
			tamper: func(sc *scenario.Context, tb *dataset.Tables) {
				for i, r := range tb.Breaches.Rows {
					if r.Sleeve == sc.Stress.Sleeve && sc.IsStressedLimit(r.LimitType) {
						tb.Breaches.Rows[i].BreachCount = 0
					}
				}
			},
		},
		{
			name:  "table missing",
			check: CheckMissingTable,
			tamper: func(_ *scenario.Context, tb *dataset.Tables) {
				tb.Orders = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, tables := generate(t)
			tt.tamper(sc, tables)

			report := newTestValidator().Validate(sc, tables)
			assert.True(t, report.Violated(tt.check), "expected %s, got %+v", tt.check, report.Violations)

			err := report.Err()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailed))
			assert.Contains(t, err.Error(), tt.check)
		})
	}
}

func TestReportRender(t *testing.T) {
	r := newReport("run-1", 2)
	r.find("volatility_ratio[NVDA]", 1.9, "1.90 ±15%", true)
	r.find("quality_ratio[AMD]", 0.99, "0.85 ±15%", false)
	r.violate(CheckOrderIDs, "row %d", 1)
	r.violate(CheckOrderIDs, "row %d", 2)
	r.violate(CheckOrderIDs, "row %d", 3)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "QA run run-1")
	assert.Contains(t, out, "volatility_ratio[NVDA]")
	assert.Contains(t, out, "out of band")
	assert.Contains(t, out, "order_ids")
	assert.Contains(t, out, "FAIL")

	assert.Equal(t, 3, r.Violations[0].Count)
	assert.Len(t, r.Violations[0].Samples, 2)
	assert.Equal(t, 1, r.OutOfBand())
}

func TestWriteVolatilityChart(t *testing.T) {
	sc, tables := generate(t)
	path := filepath.Join(t.TempDir(), "charts", "volatility.png")

	require.NoError(t, WriteVolatilityChart(path, sc, tables.FactorVectors))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, WriteVolatilityChart(path, sc, nil))
}
