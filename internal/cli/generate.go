package cli

import (
	"github.com/spf13/cobra"

	"portfolio-scenario-gen/internal/app"
)

var (
	generateSeed   uint64
	generateDir    string
	generateFormat string
	generateNoDB   bool
	generateChart  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate all five tables, persist them, and run QA",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Generate(cmd.Context(), app.GenerateOptions{
			Seed:         seedFlag(cmd, generateSeed),
			Dir:          generateDir,
			Format:       generateFormat,
			SkipDatabase: generateNoDB,
			ChartPath:    generateChart,
		})
	},
}

func init() {
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "Override scenario.seed")
	generateCmd.Flags().StringVar(&generateDir, "out", "", "Output directory (overrides output.dir)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "", "Output format: csv or parquet")
	generateCmd.Flags().BoolVar(&generateNoDB, "no-db", false, "Skip the database even when database.dsn is set")
	generateCmd.Flags().StringVar(&generateChart, "chart", "", "Write the volatility chart PNG to this path")
}
