package dedup

import (
	"fmt"

	"github.com/agentstation/mapmerge/pkg/constants"
	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/errors"
)

// ConflictKind names one of the three cross-dataset conflict rules.
type ConflictKind string

const (
	// ConflictExact is the same name and the same id.
	ConflictExact ConflictKind = "exact_duplicate"
	// ConflictName is the same name with a different id.
	ConflictName ConflictKind = "same_name_different_id"
	// ConflictID is the same id with a different name.
	ConflictID ConflictKind = "same_id_different_name"
)

// Classification is the conflict result computed once over every pair of
// input datasets. It is read-only after Classify returns.
type Classification struct {
	exact     map[dataset.Key]struct{}
	exactKeys []dataset.Key

	names     map[string]struct{}
	nameOrder []string

	ids     map[float64]struct{}
	idOrder []float64

	comparisons int
}

func newClassification() *Classification {
	return &Classification{
		exact: make(map[dataset.Key]struct{}),
		names: make(map[string]struct{}),
		ids:   make(map[float64]struct{}),
	}
}

// Classify compares every unordered pair of datasets (i < j) item type by
// item type and records exact duplicates, name conflicts and id conflicts.
//
// For each compared pair of entries the rules are checked in order: same
// name and id, then same name, then same id. A repeated exact key keeps its
// first position and takes the latest entry as its representative.
func Classify(sets []*dataset.Dataset) (*Classification, error) {
	if len(sets) < constants.MinInputs {
		return nil, errors.NewValidationError("datasets", len(sets),
			fmt.Sprintf("at least %d datasets are required", constants.MinInputs))
	}

	c := newClassification()
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			c.comparePair(sets[i].Items, sets[j].Items)
		}
	}
	return c, nil
}

func (c *Classification) comparePair(left, right *dataset.Items) {
	for _, itemType := range left.Types() {
		others := right.Get(itemType)
		for _, a := range left.Get(itemType) {
			for _, b := range others {
				c.comparisons++
				switch {
				case a.Name == b.Name && a.ID == b.ID:
					c.addExact(a)
				case a.Name == b.Name:
					c.addName(a.Name)
				case a.ID == b.ID:
					c.addID(a.ID)
				}
			}
		}
	}
}

func (c *Classification) addExact(e dataset.Entry) {
	k := e.Key()
	if _, ok := c.exact[k]; ok {
		return
	}
	c.exact[k] = struct{}{}
	c.exactKeys = append(c.exactKeys, k)
}

func (c *Classification) addName(name string) {
	if _, ok := c.names[name]; ok {
		return
	}
	c.names[name] = struct{}{}
	c.nameOrder = append(c.nameOrder, name)
}

func (c *Classification) addID(id float64) {
	if _, ok := c.ids[id]; ok {
		return
	}
	c.ids[id] = struct{}{}
	c.idOrder = append(c.idOrder, id)
}

// IsExact reports whether k is an exact duplicate key.
func (c *Classification) IsExact(k dataset.Key) bool {
	_, ok := c.exact[k]
	return ok
}

// HasNameConflict reports whether name was seen with two different ids.
func (c *Classification) HasNameConflict(name string) bool {
	_, ok := c.names[name]
	return ok
}

// HasIDConflict reports whether id was seen with two different names.
func (c *Classification) HasIDConflict(id float64) bool {
	_, ok := c.ids[id]
	return ok
}

// Conflicts reports whether e matches any recorded conflict. Such an
// entry is removed from every cleaned dataset.
func (c *Classification) Conflicts(e dataset.Entry) bool {
	return c.IsExact(e.Key()) || c.HasNameConflict(e.Name) || c.HasIDConflict(e.ID)
}

// ExactKeys returns the exact duplicate keys in first-seen order.
func (c *Classification) ExactKeys() []dataset.Key {
	return append([]dataset.Key(nil), c.exactKeys...)
}

// Names returns the conflicting names in first-seen order.
func (c *Classification) Names() []string {
	return append([]string(nil), c.nameOrder...)
}

// IDs returns the conflicting ids in first-seen order.
func (c *Classification) IDs() []float64 {
	return append([]float64(nil), c.idOrder...)
}

// Comparisons returns how many entry pairs were compared.
func (c *Classification) Comparisons() int {
	return c.comparisons
}

// Empty reports whether no conflict of any kind was found.
func (c *Classification) Empty() bool {
	return len(c.exactKeys) == 0 && len(c.nameOrder) == 0 && len(c.idOrder) == 0
}
