package app

import (
	"bytes"
	"context"

	"github.com/google/uuid"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/dedup"
	"github.com/agentstation/mapmerge/pkg/errors"
	"github.com/agentstation/mapmerge/pkg/logging"
	"github.com/agentstation/mapmerge/pkg/report"
)

// runMerge loads every input, deduplicates them, writes the outputs unless
// this is a dry run and prints the report.
func (a *App) runMerge(ctx context.Context, inputs []string) error {
	format, err := report.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}

	ctx = logging.WithLogger(ctx, a.logger)
	ctx = logging.WithRunID(ctx, uuid.NewString())
	logger := logging.FromContext(ctx)

	logger.Debug().
		Strs("inputs", inputs).
		Str("output_dir", a.config.OutputDir).
		Bool("dry_run", a.config.DryRun).
		Msg("Starting merge")

	// Every input is read before anything is written.
	datasets, err := dataset.LoadAll(ctx, a.fs, inputs)
	if err != nil {
		return err
	}

	result, err := a.deduplicator.Run(ctx, datasets)
	if err != nil {
		return errors.WrapResource("deduplicate", "datasets", "", err)
	}

	if result.Classification.Empty() {
		logger.Info().Msg("No conflicts found")
	}

	plan := dedup.NewPlan(a.config.OutputDir, inputs)
	for _, loc := range plan.Collisions() {
		logging.FromContext(logging.WithFile(ctx, loc)).Warn().Msg("Several inputs share this cleaned output name; the last one wins")
	}

	if a.config.DryRun {
		logger.Info().Msg("Dry run, no dataset outputs written")
	} else if err := plan.Save(ctx, a.fs, result); err != nil {
		return err
	}

	summary := report.NewSummary(result, plan, a.config.DryRun)
	if err := report.NewFormatter(format, a.config.NoColor).Format(a.stdout, summary); err != nil {
		return errors.WrapResource("write", "report", "", err)
	}

	if a.config.Report != "" {
		if err := a.writeMarkdown(ctx, a.config.Report, summary); err != nil {
			return err
		}
	}

	logger.Info().
		Int("inputs", len(inputs)).
		Int("merged_entries", summary.MergedEntries).
		Int("duplicates", summary.DuplicateEntries).
		Dur("duration", result.Duration).
		Msg("Merge complete")
	return nil
}

func (a *App) writeMarkdown(ctx context.Context, location string, summary *report.Summary) error {
	var buf bytes.Buffer
	if err := report.WriteMarkdown(&buf, summary); err != nil {
		return errors.WrapResource("render", "report", location, err)
	}
	if err := a.fs.Upload(ctx, dataset.Location(location), constants.FilePermissions, &buf); err != nil {
		return errors.WrapIO("write", location, err)
	}
	logging.FromContext(logging.WithFile(ctx, location)).Info().Msg("Wrote report")
	return nil
}
