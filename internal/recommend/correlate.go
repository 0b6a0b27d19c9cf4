package recommend

import "github.com/comigor/bodi-go/internal/catalog"

// Lookup resolves an identifier against a catalog. *catalog.Snapshot
// satisfies it.
type Lookup interface {
	Lookup(id string) (catalog.Entry, bool)
}

// Set is an ordered recommendation set: no duplicate ids, every entry present
// in the snapshot it came from.
type Set []catalog.Entry

// IDs returns the entry ids in order.
func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, e := range s {
		ids[i] = e.ID
	}
	return ids
}

// Stats describes one correlation pass.
type Stats struct {
	Requested int
	Resolved  int
	Dangling  []string
}

// Correlate resolves ids in order against lookup, silently skipping ids the
// catalog does not hold. It is pure; re-run it whenever the snapshot changes.
func Correlate(ids []string, lookup Lookup) Set {
	set, _ := CorrelateWithStats(ids, lookup)
	return set
}

// CorrelateWithStats is Correlate that also reports which ids were dropped.
func CorrelateWithStats(ids []string, lookup Lookup) (Set, Stats) {
	stats := Stats{Requested: len(ids)}
	set := make(Set, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		entry, ok := lookup.Lookup(id)
		if !ok {
			stats.Dangling = append(stats.Dangling, id)
			continue
		}
		set = append(set, entry)
	}
	stats.Resolved = len(set)
	return set, stats
}
