package main

import (
	"log"

	"checkout-backend/internal/config"
	"checkout-backend/pkg/logger"

	"github.com/joho/godotenv"
)

// loadConfig reads .env when present, then the shared app config
func loadConfig() *config.Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	logger.Info("worker config loaded", map[string]interface{}{
		"redis":       cfg.Redis.Host,
		"kafka":       cfg.Kafka.Brokers,
		"concurrency": cfg.Job.Concurrency,
	})
	return cfg
}
