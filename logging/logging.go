// Package logging builds the process logger and adapts it for gorm.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"cafe-pos-api/config"
)

// New returns a logrus logger configured from cfg. Unknown levels fall back to info.
func New(cfg config.Log) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Gorm routes gorm's own logging through log at warn level.
func Gorm(log *logrus.Logger) gormlogger.Interface {
	return gormlogger.New(log.WithField("component", "gorm"), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
