package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"medwarehouse/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		return buildPipeline().Run(ctx)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured daily schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		sched := pipeline.NewScheduler(buildPipeline(), cfg.Schedule, logger)
		return sched.Start(ctx)
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run only the ingestion stage",
	RunE:  stageRunE(scrapeStage),
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run only the raw-to-Postgres load stage",
	RunE:  stageRunE(loadStage),
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Run only the dbt transformation stage",
	RunE:  stageRunE(transformStage),
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run only the image enrichment stage",
	RunE:  stageRunE(enrichStage),
}

// stageRunE runs a single stage through the pipeline so it gets the same
// logging and failure reporting as a full run.
func stageRunE(stage func() pipeline.Stage) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		return pipeline.New(logger, stage()).Run(ctx)
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
