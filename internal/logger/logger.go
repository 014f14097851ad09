package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	Logger *logrus.Logger // Main logger instance
)

// Options controls where application logs go.
type Options struct {
	Level string // DEBUG, INFO, WARN or ERROR
	File  string // empty logs to stdout
}

// Initialize sets up the logger. Failing to open the log file falls back to stdout.
func Initialize(opts Options) {
	Logger = New(opts.Level, os.Stdout)

	if opts.File != "" {
		out, err := openLogFile(opts.File)
		if err != nil {
			Logger.WithError(err).Warn("Failed to open log file, logging to stdout")
		} else {
			Logger.SetOutput(out)
			Logger.SetReportCaller(true)
		}
	}

	Logger.WithFields(logrus.Fields{
		"log_level": Logger.GetLevel().String(),
		"log_file":  opts.File,
	}).Debug("Logging system initialized")
}

// New builds a text logger writing to out.
func New(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(ParseLevel(level))
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})
	return l
}

// ParseLevel maps LOG_LEVEL values to logrus levels, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARN":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

// GetLogger returns the configured main logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		Initialize(Options{Level: os.Getenv("LOG_LEVEL"), File: os.Getenv("LOG_FILE")})
	}
	return Logger
}

// WithService creates a logger scoped to a reporting service name
func WithService(name string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"service":   name,
		"component": "errorgroup",
	})
}

// WithDevice creates a logger with device context
func WithDevice(deviceID uint, deviceName string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"device_id":   deviceID,
		"device_name": deviceName,
	})
}

// WithRequest creates a logger with HTTP request context
func WithRequest(requestID string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"request_id": requestID,
		"component":  "http",
	})
}

// WithUser creates a logger with user context
func WithUser(userID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"user_id":   userID,
		"component": "controller",
	})
}

// WithError creates a logger with error context
func WithError(err error, component string) *logrus.Entry {
	fields := logrus.Fields{
		"error":     err.Error(),
		"component": component,
	}

	// Add stack trace for debug level
	if GetLogger().GetLevel() >= logrus.DebugLevel {
		fields["stack_trace"] = getStackTrace()
	}

	return GetLogger().WithFields(fields)
}

// getStackTrace returns a formatted stack trace
func getStackTrace() string {
	var stack []string
	for i := 2; i < 10; i++ {
		if pc, file, line, ok := runtime.Caller(i); ok {
			fn := runtime.FuncForPC(pc)
			stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		}
	}
	return strings.Join(stack, "\n")
}

func Debug(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Debug(msg)
}

func Info(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Info(msg)
}

func Warn(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Warn(msg)
}

func Error(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Error(msg)
}

func Fatal(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Fatal(msg)
}
