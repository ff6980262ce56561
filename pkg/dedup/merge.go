package dedup

import "github.com/agentstation/mapmerge/pkg/dataset"

// Merge concatenates, per item type, the entries of every mapping in the
// order given. Item types appear in first-seen order.
func Merge(all ...*dataset.Items) *dataset.Items {
	out := dataset.NewItems()
	for _, items := range all {
		for _, itemType := range items.Types() {
			out.Append(itemType, items.Get(itemType)...)
		}
	}
	return out
}
