// Package logging provides structured logging for mapmerge using zerolog.
// Console output is used on terminals and JSON everywhere else.
//
// The logger travels in the context. Each layer narrows it with the fields
// it knows about:
//
//	ctx := logging.WithLogger(context.Background(), &logger)
//	ctx = logging.WithOperation(ctx, "load")
//	ctx = logging.WithFile(ctx, "tools.json")
//	logging.FromContext(ctx).Debug().Int("entries", 12).Msg("Loaded dataset")
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// defaultLogger is used when a context carries no logger.
var defaultLogger = newDefaultLogger()

// newDefaultLogger builds the fallback logger from LOG_LEVEL, DEBUG and
// LOG_FORMAT before any flags are parsed.
func newDefaultLogger() zerolog.Logger {
	cfg := DefaultConfig()
	switch {
	case os.Getenv("LOG_LEVEL") != "":
		cfg.Level = os.Getenv("LOG_LEVEL")
	case os.Getenv("DEBUG") != "":
		cfg.Level = "debug"
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return NewLoggerFromConfig(cfg)
}

// Default returns the fallback logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
