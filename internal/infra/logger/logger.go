// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"export_stats_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const serviceName = "export-stats-bot"

// Log is the global logger instance
var Log = logrus.New()

// base fields stamped on every component entry
var base = logrus.Fields{"service": serviceName}

// Init configures the global logger for the running environment: JSON lines
// with service and env fields in production and staging, colored text elsewhere.
func Init(cfg *config.AppConfig) {
	configure(cfg, os.Stdout)
}

func configure(cfg *config.AppConfig, out io.Writer) {
	Log.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	switch cfg.Environment {
	case "production", "staging":
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
		})
	default:
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     cfg.Environment != "test",
		})
	}

	base = logrus.Fields{"service": serviceName, "env": cfg.Environment}

	Component("logger").WithField("level", level.String()).Info("Logger initialized successfully.")
}

// Component returns an entry tagged with the service fields and the component name.
func Component(name string) *logrus.Entry {
	return Log.WithFields(base).WithField("component", name)
}
