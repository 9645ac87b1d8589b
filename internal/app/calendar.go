package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Calendar prints the trading days between From and To, or the configured
// full range when both are zero.
func (a *App) Calendar(_ context.Context, opts CalendarOptions) error {
	cal, err := a.newCalendar()
	if err != nil {
		return err
	}

	from, to := opts.From, opts.To
	if from.IsZero() && to.IsZero() {
		w := a.Config.Scenario.Windows()
		from, to = w.RangeStart, w.RangeEnd
	}
	if from.IsZero() || to.IsZero() {
		return errors.New("both --from and --to are required")
	}

	days := cal.TradingDays(from, to)
	return writeTradingDays(os.Stdout, days, opts.Count)
}

func writeTradingDays(w io.Writer, days []time.Time, countOnly bool) error {
	if !countOnly {
		for _, d := range days {
			if _, err := fmt.Fprintln(w, d.Format(time.DateOnly)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d trading days\n", len(days))
	return err
}
