package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"portfolio-scenario-gen/internal/app"
	"portfolio-scenario-gen/internal/config"
	"portfolio-scenario-gen/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:           "scenariogen",
	Short:         "Generate the synthetic portfolio regime-shift scenario dataset",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(qaCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}

// seedFlag returns the --seed value when it was set explicitly.
func seedFlag(cmd *cobra.Command, v uint64) *uint64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	return &v
}
