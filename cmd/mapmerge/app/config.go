package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file actually read, if any
	ConfigFile string

	// Run configuration
	OutputDir string
	Format    string
	Report    string
	DryRun    bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later with UpdateFromFlags)
// 2. Environment variables (MAPMERGE_ prefix)
// 3. .env files
// 4. Config file (configFile, or ~/.mapmerge.yaml / ./.mapmerge.yaml)
// 5. Defaults
func LoadConfig(configFile ...string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("mapmerge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output_dir", constants.DefaultOutputDir)
	v.SetDefault("format", "text")

	if len(configFile) > 0 && configFile[0] != "" {
		v.SetConfigFile(configFile[0])
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile[0], err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".mapmerge")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot read config file", err)
			}
		}
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),

		ConfigFile: v.ConfigFileUsed(),

		OutputDir: v.GetString("output_dir"),
		Format:    v.GetString("format"),
		Report:    v.GetString("report"),
		DryRun:    v.GetBool("dry_run"),

		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}, nil
}

// UpdateFromFlags copies every flag the user set explicitly onto the config.
// Flags left at their defaults do not override file or environment values.
func (c *Config) UpdateFromFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "verbose":
			c.Verbose = value == "true"
		case "quiet":
			c.Quiet = value == "true"
		case "no-color":
			c.NoColor = value == "true"
		case "log-level":
			c.LogLevel = value
		case "output-dir":
			c.OutputDir = value
		case "format":
			c.Format = value
		case "report":
			c.Report = value
		case "dry-run":
			c.DryRun = value == "true"
		}
	})
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is read second; godotenv never overrides variables already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
