package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/devicewatch/backend/internal/errorgroup"
)

const (
	defaultPort         = "8080"
	defaultCORSOrigin   = "http://localhost:5173"
	defaultJWTTTL       = 24 * time.Hour
	defaultReportWindow = 24 * time.Hour
	defaultErrorsLimit  = 100
)

type Database struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the DB_* variables.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type Config struct {
	Env        string
	Port       string
	GinMode    string
	LogLevel   string
	LogFile    string
	CORSOrigin string

	JWTSecret string
	JWTTTL    time.Duration

	ReportWindow       time.Duration
	ErrorsDefaultLimit int

	EngineConfigPath string
	Engine           errorgroup.Options

	Database Database
}

// Load reads .env if present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:              os.Getenv("ENV"),
		Port:             getEnv("PORT", defaultPort),
		GinMode:          os.Getenv("GIN_MODE"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		LogFile:          os.Getenv("LOG_FILE"),
		CORSOrigin:       defaultCORSOrigin,
		JWTSecret:        os.Getenv("JWT_SECRET"),
		EngineConfigPath: os.Getenv("ENGINE_CONFIG"),
		Database: Database{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}

	if cfg.Env != "local" && cfg.Env != "" {
		if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
			cfg.CORSOrigin = origin
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.ReportWindow, err = getDuration("REPORT_WINDOW", defaultReportWindow); err != nil {
		return nil, err
	}
	if cfg.ErrorsDefaultLimit, err = getInt("ERRORS_DEFAULT_LIMIT", defaultErrorsLimit); err != nil {
		return nil, err
	}

	if cfg.Engine, err = LoadEngineOptions(cfg.EngineConfigPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return n, nil
}
