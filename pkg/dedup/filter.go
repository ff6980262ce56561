package dedup

import (
	"github.com/agentstation/mapmerge/pkg/dataset"
)

// Filter returns a copy of items without the entries that match any
// conflict in c. Entry order is kept and item types left empty are dropped.
func Filter(items *dataset.Items, c *Classification) *dataset.Items {
	out := dataset.NewItems()
	for _, itemType := range items.Types() {
		var kept []dataset.Entry
		for _, e := range items.Get(itemType) {
			if c.Conflicts(e) {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) > 0 {
			out.Set(itemType, kept)
		}
	}
	return out
}

// Collector gathers one entry per exact duplicate key and item type across
// any number of Collect calls. The first entry seen for a key wins.
type Collector struct {
	c     *Classification
	items *dataset.Items
	seen  map[string]map[dataset.Key]struct{}
}

// NewCollector creates a collector for the exact duplicates of c.
func NewCollector(c *Classification) *Collector {
	return &Collector{
		c:     c,
		items: dataset.NewItems(),
		seen:  make(map[string]map[dataset.Key]struct{}),
	}
}

// Collect scans items and keeps every exact duplicate not collected yet
// under the same item type.
func (col *Collector) Collect(items *dataset.Items) {
	for _, itemType := range items.Types() {
		for _, e := range items.Get(itemType) {
			k := e.Key()
			if !col.c.IsExact(k) {
				continue
			}
			seen, ok := col.seen[itemType]
			if !ok {
				seen = make(map[dataset.Key]struct{})
				col.seen[itemType] = seen
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			col.items.Append(itemType, e)
		}
	}
}

// Items returns the collected duplicates grouped by item type.
func (col *Collector) Items() *dataset.Items {
	return col.items
}
