package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/errors"
)

// Execute runs the mapmerge CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "mapmerge FILE FILE [FILE...]",
		Short:   "Deduplicate and merge custom model data mapping files",
		Version: a.version,
		Long: `mapmerge compares two or more JSON mapping files and removes every entry
that conflicts across files:

  - exact duplicates (same name and same custom_model_data)
  - same name with a different custom_model_data
  - same custom_model_data with a different name

It writes one <name>_clean.json per input, merged.json with the union of the
cleaned files, and duplicates.json with one copy of each exact duplicate.`,
		Example: `  mapmerge vanilla.json modpack.json
  mapmerge -d out --format table a.json b.json c.json
  mapmerge --dry-run --report report.md a.json b.json`,
		Args:              validateArgs,
		PersistentPreRunE: a.setupCommand,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(cmd.Context(), args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.mapmerge.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.Flags().StringP("output-dir", "d", constants.DefaultOutputDir, "directory for cleaned, merged and duplicates files")
	rootCmd.Flags().StringP("format", "o", "text", "report format: text, table, json, yaml")
	rootCmd.Flags().String("report", "", "also write a Markdown report to this path")
	rootCmd.Flags().Bool("dry-run", false, "classify and report without writing dataset outputs")

	rootCmd.SetVersionTemplate("mapmerge {{.Version}}\n")
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	return rootCmd
}

// validateArgs requires at least two input files.
func validateArgs(_ *cobra.Command, args []string) error {
	if len(args) < constants.MinInputs {
		return errors.NewValidationError("files", len(args),
			fmt.Sprintf("at least %d input files are required, got %d", constants.MinInputs, len(args)))
	}
	return nil
}

// setupCommand is called before the command runs. It reloads configuration
// when --config is given, applies explicitly set flags and rebuilds the logger.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if path := mustGetString(cmd, "config"); path != "" {
		config, err := LoadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(cmd.Flags())

	if !a.fixedLogger {
		logger := newLogger(a.config, a.stderr)
		a.logger = &logger
	}
	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
