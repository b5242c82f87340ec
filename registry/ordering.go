package registry

import (
	"slices"
	"strings"
)

// orderForCleanup sorts entries into deterministic bulk-cleanup order:
// group rank first (GUI, network/DB, GPU, filesystem, other), then explicit
// cleanup priority within the group, then creation time, then ID as the
// final tiebreak. The sort is total: every key below is always derivable,
// so two passes over the same records always produce the same order.
func orderForCleanup(entries []*entry) {
	slices.SortStableFunc(entries, func(a, b *entry) int {
		if c := int(a.rec.Group) - int(b.rec.Group); c != 0 {
			return c
		}
		ap, bp := a.rec.CleanupPriority(), b.rec.CleanupPriority()
		if ap != bp {
			if ap < bp {
				return -1
			}
			return 1
		}
		if c := a.rec.CreatedAt.Compare(b.rec.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.rec.ID, b.rec.ID)
	})
}
