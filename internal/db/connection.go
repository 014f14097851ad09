package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/devicewatch/backend/internal/logger"
	"github.com/devicewatch/backend/internal/models"
)

var DB *gorm.DB

// Connect opens the postgres connection described by dsn.
func Connect(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = conn
	logger.Info("Database connected successfully", nil)
	return conn, nil
}

// Models lists every table owned by the backend, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.Device{},
		&models.DetailSnapshot{},
		&models.Event{},
	}
}

// AutoMigrate creates or updates the tables for every model.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("migration of %T failed: %w", m, err)
		}
		logger.Debug("Table migrated", map[string]interface{}{"model": fmt.Sprintf("%T", m)})
	}

	logger.Info("All database migrations completed successfully", nil)
	return nil
}

// Ping checks that the database answers.
func Ping(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database connection not initialized")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
