package engine

import (
	"fmt"

	"github.com/zephyrtronium/contains"
)

// CheckUniqueScopeIDs verifies that every user scope id (>= FirstScopeID)
// appears at most once across recs. It is an optional sanity check, not
// something the drain path runs on every record: a seen-before membership
// check rather than a general map.
func CheckUniqueScopeIDs(recs []Record) error {
	var seen contains.Set
	for _, r := range recs {
		if r.ID < FirstScopeID {
			continue
		}
		if !seen.Add(uintptr(r.ID)) {
			return fmt.Errorf("scope id %d emitted more than once", r.ID)
		}
	}
	return nil
}
