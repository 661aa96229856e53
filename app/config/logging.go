package config

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// NewLogger builds the application logger from the log settings.
func NewLogger(cfg LogConfig, w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLogLevel(cfg.Level),
		Formatter:       ParseLogFormatter(cfg.Format),
		ReportTimestamp: true,
		Prefix:          "zodo",
	})
}

// ParseLogLevel parses a string log level to a charmbracelet/log Level.
func ParseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseLogFormatter parses a string formatter name to a charmbracelet/log Formatter.
func ParseLogFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
