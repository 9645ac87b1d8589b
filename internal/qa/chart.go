package qa

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/scenario"
)

// WriteVolatilityChart plots the event tickers' volatility scores from the
// baseline lookback through the recovery window, with each ticker's pivot
// target as a flat reference line.
func WriteVolatilityChart(path string, sc *scenario.Context, factors *dataset.Frame[dataset.FactorVector]) error {
	if factors == nil {
		return fmt.Errorf("volatility chart: %s not produced", dataset.FactorVectorsTable)
	}
	w := sc.Windows

	series := make([]chart.Series, 0, 2*len(sc.Events))
	for _, p := range sc.Events {
		var x []time.Time
		var y []float64
		for _, row := range factors.Rows {
			if row.Ticker != p.Ticker || row.Date.Before(w.BaselineStart) || row.Date.After(w.RecoveryEnd) {
				continue
			}
			x = append(x, row.Date)
			y = append(y, row.VolatilityScore)
		}
		if len(x) < 2 {
			continue
		}

		pivot := 0.0
		for i, d := range x {
			if w.IsPivot(d) {
				pivot = y[i]
			}
		}
		ref := make([]float64, len(x))
		for i := range ref {
			ref[i] = pivot
		}

		series = append(series,
			chart.TimeSeries{Name: p.Ticker + " volatility", XValues: x, YValues: y},
			chart.TimeSeries{
				Name:    p.Ticker + " pivot",
				XValues: x,
				YValues: ref,
				Style:   chart.Style{StrokeDashArray: []float64{5, 5}, StrokeWidth: 1},
			},
		)
	}
	if len(series) == 0 {
		return fmt.Errorf("volatility chart: no event ticker rows between %s and %s",
			w.BaselineStart.Format(time.DateOnly), w.RecoveryEnd.Format(time.DateOnly))
	}

	scoreFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  "Event volatility",
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Volatility score",
			ValueFormatter: scoreFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("volatility chart: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("volatility chart: %w", err)
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return fmt.Errorf("volatility chart: render: %w", err)
	}
	return nil
}
