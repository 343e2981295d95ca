package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"medwarehouse/internal/config"
	"medwarehouse/internal/repository"
	"medwarehouse/internal/server"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	srv := server.NewServer(db, logger)
	if err := srv.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
}
