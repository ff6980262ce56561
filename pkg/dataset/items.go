package dataset

// Items is an insertion-ordered mapping from item type to entries.
// The zero value is an empty mapping ready to use.
type Items struct {
	types   []string
	entries map[string][]Entry
}

// NewItems creates an empty mapping.
func NewItems() *Items {
	return &Items{entries: make(map[string][]Entry)}
}

// Types returns the item types in the order they were first added.
func (i *Items) Types() []string {
	if i == nil {
		return nil
	}
	out := make([]string, len(i.types))
	copy(out, i.types)
	return out
}

// Get returns the entries of an item type.
func (i *Items) Get(itemType string) []Entry {
	if i == nil {
		return nil
	}
	return i.entries[itemType]
}

// Set replaces the entries of an item type. A new type is placed last;
// an existing type keeps its position.
func (i *Items) Set(itemType string, entries []Entry) {
	i.init()
	if _, ok := i.entries[itemType]; !ok {
		i.types = append(i.types, itemType)
	}
	i.entries[itemType] = entries
}

// Append adds entries to the end of an item type, creating it if needed.
func (i *Items) Append(itemType string, entries ...Entry) {
	i.init()
	if _, ok := i.entries[itemType]; !ok {
		i.types = append(i.types, itemType)
	}
	i.entries[itemType] = append(i.entries[itemType], entries...)
}

// Len returns the number of item types.
func (i *Items) Len() int {
	if i == nil {
		return 0
	}
	return len(i.types)
}

// Count returns the number of entries across all item types.
func (i *Items) Count() int {
	if i == nil {
		return 0
	}
	n := 0
	for _, t := range i.types {
		n += len(i.entries[t])
	}
	return n
}

func (i *Items) init() {
	if i.entries == nil {
		i.entries = make(map[string][]Entry)
	}
}
