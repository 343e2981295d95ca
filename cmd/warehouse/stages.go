package main

import (
	"context"

	"medwarehouse/internal/dbt"
	"medwarehouse/internal/detector"
	"medwarehouse/internal/enrichment"
	"medwarehouse/internal/loader"
	"medwarehouse/internal/pipeline"
	"medwarehouse/internal/rawstore"
	"medwarehouse/internal/repository"
	"medwarehouse/internal/scraper"
	"medwarehouse/internal/telegram"
)

// Each stage builds and tears down its own collaborators so it can be run
// on its own and re-run without depending on any other stage's process state.

func scrapeStage() pipeline.Stage {
	return pipeline.Stage{Name: "scrape", Run: func(ctx context.Context) (string, error) {
		client, err := telegram.NewClient(&cfg.Telegram, logger)
		if err != nil {
			return "", err
		}

		var summary string
		err = client.Run(ctx, func(ctx context.Context) error {
			store := rawstore.New(cfg.Paths.RawMessages)
			s := scraper.New(client, store, cfg.Paths.RawImages, cfg.Channels, cfg.Scraper.MessageLimit, logger)

			out, runErr := s.Run(ctx)
			summary = out
			return runErr
		})
		return summary, err
	}}
}

func loadStage() pipeline.Stage {
	return pipeline.Stage{Name: "load", Run: func(ctx context.Context) (string, error) {
		db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
		if err != nil {
			return "", err
		}
		defer db.Close()

		store := rawstore.New(cfg.Paths.RawMessages)
		repo := repository.NewRawMessageRepository(db, cfg.Paths.Migrations, logger)
		return loader.New(store, repo, logger).Run(ctx)
	}}
}

func transformStage() pipeline.Stage {
	runner := dbt.NewCommandRunner(cfg.DBT.Bin, cfg.DBT.ProjectDir)
	return pipeline.Stage{Name: "transform", Run: runner.Run}
}

func enrichStage() pipeline.Stage {
	return pipeline.Stage{Name: "enrich", Run: func(ctx context.Context) (string, error) {
		det := detector.NewClient(cfg.Detector.URL, cfg.Detector.ConfidenceThreshold)
		e := enrichment.New(det, cfg.Paths.RawImages, cfg.Paths.DetectionsCSV, logger)
		return e.Run(ctx)
	}}
}

func buildPipeline() *pipeline.Pipeline {
	return pipeline.New(logger,
		scrapeStage(),
		loadStage(),
		transformStage(),
		enrichStage(),
	)
}
