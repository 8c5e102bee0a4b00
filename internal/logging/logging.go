// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"regform/internal/config"
)

// New returns a logger writing to w at the configured level and format.
// Unknown levels fall back to info, unknown formats to text.
func New(w io.Writer, cfg config.LogConfig) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Prefix:          "regform",
	})

	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		logger.SetFormatter(log.TextFormatter)
	}
	return logger
}
