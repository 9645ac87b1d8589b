package cli

import (
	"github.com/spf13/cobra"

	"portfolio-scenario-gen/internal/app"
)

var (
	qaSeed   uint64
	qaChart  string
	qaNotify bool
)

var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "Regenerate the tables in memory and validate the scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().QA(cmd.Context(), app.QAOptions{
			Seed:      seedFlag(cmd, qaSeed),
			ChartPath: qaChart,
			Notify:    qaNotify,
		})
	},
}

func init() {
	qaCmd.Flags().Uint64Var(&qaSeed, "seed", 0, "Override scenario.seed")
	qaCmd.Flags().StringVar(&qaChart, "chart", "", "Write the volatility chart PNG to this path")
	qaCmd.Flags().BoolVar(&qaNotify, "notify", false, "Send the QA summary through the configured notifier")
}
