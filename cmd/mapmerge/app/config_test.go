package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/mapmerge/pkg/errors"
)

// TestLoadConfig verifies basic config loading.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, config)

	// LogLevel stays empty so the precedence rules in logger.go apply.
	assert.Empty(t, config.LogLevel)
	assert.NotEmpty(t, config.LogFormat)
	assert.Equal(t, ".", config.OutputDir)
	assert.Equal(t, "text", config.Format)
	assert.False(t, config.DryRun)
}

// TestConfig_EnvironmentVariables verifies MAPMERGE_ environment variables.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("MAPMERGE_VERBOSE", "true")
	t.Setenv("MAPMERGE_FORMAT", "json")
	t.Setenv("MAPMERGE_OUTPUT_DIR", "out")
	t.Setenv("MAPMERGE_DRY_RUN", "true")
	t.Setenv("MAPMERGE_NO_COLOR", "1")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, config.Verbose)
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "out", config.OutputDir)
	assert.True(t, config.DryRun)
	assert.True(t, config.NoColor)
}

func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: build\nformat: table\nreport: report.md\n"), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "build", config.OutputDir)
	assert.Equal(t, "table", config.Format)
	assert.Equal(t, "report.md", config.Report)
	assert.Equal(t, path, config.ConfigFile)
}

func TestConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

// TestUpdateFromFlags verifies that only flags set on the command line
// override loaded values.
func TestUpdateFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.BoolP("verbose", "v", false, "")
	flags.BoolP("quiet", "q", false, "")
	flags.Bool("no-color", false, "")
	flags.String("log-level", "", "")
	flags.StringP("output-dir", "d", ".", "")
	flags.StringP("format", "o", "text", "")
	flags.String("report", "", "")
	flags.Bool("dry-run", false, "")

	require.NoError(t, flags.Parse([]string{"-v", "--format", "yaml", "--dry-run"}))

	config := &Config{OutputDir: "from-file", Format: "table", Report: "r.md"}
	config.UpdateFromFlags(flags)

	assert.True(t, config.Verbose)
	assert.False(t, config.Quiet)
	assert.Equal(t, "yaml", config.Format)
	assert.True(t, config.DryRun)
	assert.Equal(t, "from-file", config.OutputDir)
	assert.Equal(t, "r.md", config.Report)
	assert.Empty(t, config.LogLevel)
}
