package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/markdave123-py/storagegate/internal/config"
)

// New builds the process logger from LOG_LEVEL and LOG_FORMAT. An unknown
// level falls back to info.
func New(cfg *config.Config, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stderr
	}
	logger := log.New()
	logger.SetOutput(out)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
