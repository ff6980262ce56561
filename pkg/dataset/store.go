package dataset

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/viant/afs"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/errors"
	"github.com/agentstation/mapmerge/pkg/logging"
)

// Location turns a local path into an absolute one. URLs are returned as is.
func Location(p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// Load reads and parses the document at location. Locations are afs URLs;
// plain paths are read from the local filesystem.
func Load(ctx context.Context, fs afs.Service, location string) (*Dataset, error) {
	URL := Location(location)
	exists, err := fs.Exists(ctx, URL)
	if err != nil {
		return nil, errors.WrapIO("read", location, err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("input", location)
	}

	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, errors.WrapIO("read", location, err)
	}

	ds, err := Parse(location, data)
	if err != nil {
		return nil, err
	}

	logging.FromContext(logging.WithFile(ctx, location)).Debug().
		Int("item_types", ds.Items.Len()).
		Int("entries", ds.Items.Count()).
		Msg("Loaded dataset")
	return ds, nil
}

// LoadAll loads every location in order. The first failure stops loading
// and is returned; no partial result is kept.
func LoadAll(ctx context.Context, fs afs.Service, locations []string) ([]*Dataset, error) {
	ctx = logging.WithOperation(ctx, "load")
	out := make([]*Dataset, 0, len(locations))
	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			return nil, errors.ErrCanceled
		}
		ds, err := Load(ctx, fs, location)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

// Save writes the dataset to location, replacing any existing file.
func Save(ctx context.Context, fs afs.Service, location string, d *Dataset) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := fs.Upload(ctx, Location(location), constants.FilePermissions, bytes.NewReader(data)); err != nil {
		return errors.WrapIO("write", location, err)
	}

	logging.FromContext(logging.WithFile(ctx, location)).Debug().
		Int("item_types", d.Items.Len()).
		Int("entries", d.Items.Count()).
		Msg("Saved dataset")
	return nil
}
