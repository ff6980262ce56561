// Package report renders the outcome of a mapmerge run for people: the
// files written and every conflict that caused entries to be removed.
package report

import (
	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/dedup"
)

// CleanedFile describes one input and its cleaned output.
type CleanedFile struct {
	Input   string `json:"input" yaml:"input"`
	Output  string `json:"output" yaml:"output"`
	Entries int    `json:"entries" yaml:"entries"`
	Removed int    `json:"removed" yaml:"removed"`
}

// Duplicate is one exact duplicate key.
type Duplicate struct {
	Name string  `json:"name" yaml:"name"`
	ID   float64 `json:"custom_model_data" yaml:"custom_model_data"`
}

// Summary is the serializable outcome of a run.
type Summary struct {
	DryRun           bool          `json:"dry_run" yaml:"dry_run"`
	Cleaned          []CleanedFile `json:"cleaned" yaml:"cleaned"`
	Merged           string        `json:"merged" yaml:"merged"`
	MergedEntries    int           `json:"merged_entries" yaml:"merged_entries"`
	Duplicates       string        `json:"duplicates" yaml:"duplicates"`
	DuplicateEntries int           `json:"duplicate_entries" yaml:"duplicate_entries"`
	NameConflicts    []string      `json:"name_conflicts" yaml:"name_conflicts"`
	IDConflicts      []float64     `json:"id_conflicts" yaml:"id_conflicts"`
	ExactDuplicates  []Duplicate   `json:"exact_duplicates" yaml:"exact_duplicates"`
}

// NewSummary builds the summary of result written (or planned) per plan.
func NewSummary(result *dedup.Result, plan dedup.Plan, dryRun bool) *Summary {
	cls := result.Classification
	s := &Summary{
		DryRun:           dryRun,
		Cleaned:          make([]CleanedFile, len(result.Cleaned)),
		Merged:           plan.Merged,
		MergedEntries:    result.Merged.Items.Count(),
		Duplicates:       plan.Duplicates,
		DuplicateEntries: result.Duplicates.Items.Count(),
		NameConflicts:    nonNil(cls.Names()),
		IDConflicts:      nonNil(cls.IDs()),
		ExactDuplicates:  make([]Duplicate, 0, len(cls.ExactKeys())),
	}
	for i, ds := range result.Cleaned {
		s.Cleaned[i] = CleanedFile{
			Input:   result.Inputs[i].Source,
			Output:  plan.Cleaned[i],
			Entries: ds.Items.Count(),
			Removed: result.Removed(i),
		}
	}
	for _, k := range cls.ExactKeys() {
		s.ExactDuplicates = append(s.ExactDuplicates, Duplicate{Name: k.Name, ID: k.ID})
	}
	return s
}

// Conflict is one row of the conflict listing.
type Conflict struct {
	Kind  dedup.ConflictKind `json:"kind" yaml:"kind"`
	Name  string             `json:"name" yaml:"name"`
	Value string             `json:"custom_model_data" yaml:"custom_model_data"`
}

// Conflicts flattens the three conflict kinds into rows: same name, same id,
// then exact duplicates.
func (s *Summary) Conflicts() []Conflict {
	var out []Conflict
	for _, name := range s.NameConflicts {
		out = append(out, Conflict{Kind: dedup.ConflictName, Name: name, Value: "*"})
	}
	for _, id := range s.IDConflicts {
		out = append(out, Conflict{Kind: dedup.ConflictID, Name: "*", Value: dataset.FormatID(id)})
	}
	for _, d := range s.ExactDuplicates {
		out = append(out, Conflict{Kind: dedup.ConflictExact, Name: d.Name, Value: dataset.FormatID(d.ID)})
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
