// Package app provides the application context and dependency management
// for the mapmerge CLI: configuration, logging, storage and the
// deduplicator are created here and handed to the root command.
package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/viant/afs"

	"github.com/agentstation/mapmerge/pkg/dedup"
	"github.com/agentstation/mapmerge/pkg/errors"
)

// App represents the mapmerge application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// fixedLogger keeps a logger supplied with WithLogger across flag parsing.
	fixedLogger bool

	fs           afs.Service
	deduplicator dedup.Deduplicator

	stdout io.Writer
	stderr io.Writer
}

// New creates a new App instance with the given version information.
// The app is initialized with default configuration that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		fs:      afs.New(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	d, err := dedup.New()
	if err != nil {
		return nil, errors.WrapResource("create", "deduplicator", "", err)
	}
	app.deduplicator = d

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger. A custom logger is kept when flags are parsed.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.fixedLogger = true
		return nil
	}
}

// WithFS sets the storage service used to read inputs and write outputs.
func WithFS(fs afs.Service) Option {
	return func(a *App) error {
		a.fs = fs
		return nil
	}
}

// WithOutput sets the writers for the report and for diagnostics.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) error {
		a.stdout = stdout
		a.stderr = stderr
		return nil
	}
}
