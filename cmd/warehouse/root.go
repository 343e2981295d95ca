package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medwarehouse/internal/config"
)

var (
	// flagConfig is set by the --config flag.
	flagConfig string

	// cfg and logger are initialized on startup for all subcommands.
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Telegram medical data warehouse pipeline",
	Long: `warehouse runs the scrape -> load -> transform -> enrich pipeline that
feeds the medical Telegram warehouse, either once, on a schedule, or one
stage at a time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments may export the
		// environment directly.
		_ = godotenv.Load()

		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l

		c, err := config.LoadConfig(flagConfig)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "configs/config.yml", "path to config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(enrichCmd)
}
