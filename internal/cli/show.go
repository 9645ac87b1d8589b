package cli

import (
	"github.com/spf13/cobra"

	"portfolio-scenario-gen/internal/app"
)

var showDir string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarise the persisted tables (database, or the output manifest)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{Dir: showDir})
	},
}

func init() {
	showCmd.Flags().StringVar(&showDir, "dir", "", "Read the manifest from this output directory instead of the database")
}
