package dedup

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/errors"
	"github.com/agentstation/mapmerge/pkg/logging"
)

// Plan lists the output locations of a run.
type Plan struct {
	// Dir is the directory every output is written to.
	Dir string

	// Cleaned holds one location per input, in input order.
	Cleaned []string

	// Merged is the merged output location.
	Merged string

	// Duplicates is the exact duplicates output location.
	Duplicates string
}

// NewPlan names the outputs for inputs inside dir: <basename>_clean.json per
// input, merged.json and duplicates.json.
func NewPlan(dir string, inputs []string) Plan {
	if dir == "" {
		dir = constants.DefaultOutputDir
	}
	p := Plan{
		Dir:        dir,
		Cleaned:    make([]string, len(inputs)),
		Merged:     join(dir, constants.MergedFile),
		Duplicates: join(dir, constants.DuplicatesFile),
	}
	for i, in := range inputs {
		p.Cleaned[i] = join(dir, CleanName(in))
	}
	return p
}

// CleanName returns the cleaned output file name for an input location.
func CleanName(input string) string {
	base := path.Base(filepath.ToSlash(input))
	if stem := strings.TrimSuffix(base, path.Ext(base)); stem != "" {
		base = stem
	}
	return base + constants.CleanSuffix + constants.JSONExt
}

// Collisions returns cleaned output locations shared by more than one input.
func (p Plan) Collisions() []string {
	seen := make(map[string]int)
	var out []string
	for _, loc := range p.Cleaned {
		seen[loc]++
		if seen[loc] == 2 {
			out = append(out, loc)
		}
	}
	return out
}

type output struct {
	location string
	doc      *dataset.Dataset
}

// Save writes the cleaned datasets, then the merged and duplicates documents.
// Writing stops at the first failure; files already written are left in place.
func (p Plan) Save(ctx context.Context, fs afs.Service, r *Result) error {
	if len(p.Cleaned) != len(r.Cleaned) {
		return errors.NewValidationError("plan", len(p.Cleaned), "output count does not match input count")
	}

	if err := ensureDir(ctx, fs, p.Dir); err != nil {
		return err
	}

	writes := make([]output, 0, len(r.Cleaned)+2)
	for i, doc := range r.Cleaned {
		writes = append(writes, output{location: p.Cleaned[i], doc: doc})
	}
	writes = append(writes,
		output{location: p.Merged, doc: r.Merged},
		output{location: p.Duplicates, doc: r.Duplicates},
	)

	ctx = logging.WithOperation(ctx, "save")
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return errors.ErrCanceled
		}
		if err := dataset.Save(ctx, fs, w.location, w.doc); err != nil {
			return err
		}
		logging.FromContext(logging.WithFile(ctx, w.location)).Info().
			Int("entries", w.doc.Items.Count()).
			Msg("Wrote output")
	}
	return nil
}

func ensureDir(ctx context.Context, fs afs.Service, dir string) error {
	URL := dataset.Location(dir)
	exists, err := fs.Exists(ctx, URL)
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}
	if exists {
		return nil
	}
	if err := fs.Create(ctx, URL, constants.DirPermissions, true); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	return nil
}

func join(dir, name string) string {
	if strings.Contains(dir, "://") {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}
