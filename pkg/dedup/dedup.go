// Package dedup removes cross-file conflicts from item mapping datasets.
//
// A run classifies every pair of inputs once (exact duplicates, same name
// with different ids, same id with different names), filters each input
// against that single classification, collects one copy of each exact
// duplicate and concatenates the cleaned inputs into a merged mapping.
package dedup

import (
	"context"
	"time"

	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/errors"
	"github.com/agentstation/mapmerge/pkg/logging"
)

// Deduplicator runs the classify, filter, collect and merge passes.
type Deduplicator interface {
	// Run processes the datasets in input order. Inputs are not modified.
	Run(ctx context.Context, inputs []*dataset.Dataset) (*Result, error)
}

// Result holds everything a run produced.
type Result struct {
	// Classification is the conflict set every input was filtered with.
	Classification *Classification

	// Inputs are the datasets as loaded.
	Inputs []*dataset.Dataset

	// Cleaned holds one filtered dataset per input, in input order.
	Cleaned []*dataset.Dataset

	// Merged is the concatenation of the cleaned datasets.
	Merged *dataset.Dataset

	// Duplicates holds one entry per exact duplicate key.
	Duplicates *dataset.Dataset

	// Duration of the run.
	Duration time.Duration
}

// Removed returns how many entries input i lost during filtering.
func (r *Result) Removed(i int) int {
	return r.Inputs[i].Items.Count() - r.Cleaned[i].Items.Count()
}

type deduplicator struct {
	now func() time.Time
}

// Option configures a Deduplicator
type Option func(*deduplicator) error

// WithClock sets the time source used to measure runs.
func WithClock(now func() time.Time) Option {
	return func(d *deduplicator) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "clock cannot be nil")
		}
		d.now = now
		return nil
	}
}

// New creates a Deduplicator with options
func New(opts ...Option) (Deduplicator, error) {
	d := &deduplicator{now: time.Now}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Run implements Deduplicator.
func (d *deduplicator) Run(ctx context.Context, inputs []*dataset.Dataset) (*Result, error) {
	start := d.now()

	cls, err := Classify(inputs)
	if err != nil {
		return nil, err
	}
	logging.FromContext(logging.WithOperation(ctx, "classify")).Debug().
		Int("datasets", len(inputs)).
		Int("comparisons", cls.Comparisons()).
		Int("exact_duplicates", len(cls.exactKeys)).
		Int("name_conflicts", len(cls.nameOrder)).
		Int("id_conflicts", len(cls.idOrder)).
		Msg("Classified conflicts")

	result := &Result{
		Classification: cls,
		Inputs:         inputs,
		Cleaned:        make([]*dataset.Dataset, len(inputs)),
	}

	filterCtx := logging.WithOperation(ctx, "filter")
	cleanedItems := make([]*dataset.Items, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, errors.ErrCanceled
		}
		cleanedItems[i] = Filter(in.Items, cls)
		result.Cleaned[i] = in.WithItems(cleanedItems[i])
		logging.FromContext(logging.WithFile(filterCtx, in.Source)).Debug().
			Int("kept", cleanedItems[i].Count()).
			Int("removed", result.Removed(i)).
			Msg("Filtered dataset")
	}

	// Duplicates are collected after every cleaned dataset exists.
	collector := NewCollector(cls)
	for _, in := range inputs {
		collector.Collect(in.Items)
	}
	result.Duplicates = dataset.New(collector.Items())
	result.Merged = dataset.New(Merge(cleanedItems...))
	result.Duration = d.now().Sub(start)

	return result, nil
}
