package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"portfolio-scenario-gen/internal/app"
)

var (
	calendarFrom  string
	calendarTo    string
	calendarCount bool
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "List trading days (defaults to the scenario range)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts app.CalendarOptions
		if calendarFrom != "" {
			from, err := time.Parse(time.DateOnly, calendarFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = from
		}
		if calendarTo != "" {
			to, err := time.Parse(time.DateOnly, calendarTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = to
		}
		if !opts.From.IsZero() && !opts.To.IsZero() && opts.To.Before(opts.From) {
			return fmt.Errorf("--from must not be after --to")
		}
		opts.Count = calendarCount

		return getApp().Calendar(cmd.Context(), opts)
	},
}

func init() {
	calendarCmd.Flags().StringVar(&calendarFrom, "from", "", "First date (YYYY-MM-DD, inclusive)")
	calendarCmd.Flags().StringVar(&calendarTo, "to", "", "Last date (YYYY-MM-DD, inclusive)")
	calendarCmd.Flags().BoolVar(&calendarCount, "count", false, "Print only the number of trading days")
}
