package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// NewLogger creates a new logger based on the configuration. Logs go to stderr so
// that stdout stays free for the run summary.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	return newLogger(cfg, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

func newLogger(cfg LoggerConfig, out io.Writer, interactive bool) zerolog.Logger {
	// Set log level
	var level zerolog.Level
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	// Configure output format
	console := cfg.Format == "console" || (cfg.Format == "auto" && interactive)

	var logger zerolog.Logger
	if console {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(out).With().Timestamp().Logger()
	}

	return logger.Level(level)
}
