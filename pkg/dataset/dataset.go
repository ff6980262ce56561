// Package dataset models the item mapping documents mapmerge reads and
// writes. A Dataset keeps every top-level member and every entry as the raw
// JSON text it was read from, so fields this tool does not understand are
// written back untouched and in their original order.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/agentstation/mapmerge/pkg/constants"
)

// Key identifies an entry by its name and custom model data id.
type Key struct {
	Name string
	ID   float64
}

// String renders the key as (name, id).
func (k Key) String() string {
	return fmt.Sprintf("(%s, %s)", k.Name, FormatID(k.ID))
}

// FormatID renders a custom model data id without a trailing fraction.
func FormatID(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}

// Entry is a single named item record.
type Entry struct {
	Name string
	ID   float64

	// Raw is the entry object exactly as it appeared in the source document.
	Raw json.RawMessage
}

// Key returns the (name, id) pair of the entry.
func (e Entry) Key() Key {
	return Key{Name: e.Name, ID: e.ID}
}

// NewEntry builds an entry holding only a name and an id.
func NewEntry(name string, id float64) Entry {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]any{
		constants.ModelDataKey: id,
		constants.NameKey:      name,
	})
	return Entry{Name: name, ID: id, Raw: bytes.TrimRight(buf.Bytes(), "\n")}
}

// Member is a top-level document member kept verbatim.
type Member struct {
	Key string
	Raw json.RawMessage
}

// Dataset is one mapping document.
type Dataset struct {
	// Source is the location the dataset was loaded from. Empty for derived documents.
	Source string

	// FormatVersion is the document's format_version tag.
	FormatVersion string

	// Items maps item types to their entries.
	Items *Items

	// members holds the top-level members in document order. The items
	// member is a placeholder; Items is written in its position.
	members []Member
}

// New creates a derived dataset with the literal format version "1".
func New(items *Items) *Dataset {
	if items == nil {
		items = NewItems()
	}
	return &Dataset{
		FormatVersion: constants.FormatVersion,
		Items:         items,
	}
}

// WithItems returns a copy of the dataset that carries items in place of its own.
// Every other top-level member is shared with the receiver, which is left unchanged.
func (d *Dataset) WithItems(items *Items) *Dataset {
	if items == nil {
		items = NewItems()
	}
	return &Dataset{
		Source:        d.Source,
		FormatVersion: d.FormatVersion,
		Items:         items,
		members:       d.members,
	}
}

// Members returns the top-level members in write order. Derived datasets
// yield format_version followed by items.
func (d *Dataset) Members() []Member {
	if d.members == nil {
		version, _ := json.Marshal(d.FormatVersion)
		return []Member{
			{Key: constants.FormatVersionKey, Raw: version},
			{Key: constants.ItemsKey},
		}
	}
	out := make([]Member, len(d.members))
	copy(out, d.members)
	return out
}
