package main

import (
	"github.com/devicewatch/backend/internal/config"
	"github.com/devicewatch/backend/internal/db"
	"github.com/devicewatch/backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	logger.Initialize(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	conn, err := db.Connect(cfg.Database.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Running database migrations...", nil)
	if err := db.AutoMigrate(conn); err != nil {
		logger.Fatal("Failed to migrate database", map[string]interface{}{"error": err.Error()})
	}
}
