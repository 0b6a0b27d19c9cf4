package catalog

import "time"

// Snapshot is an immutable view of one catalog load. It is safe to share
// between goroutines; nothing mutates it after NewSnapshot returns.
type Snapshot struct {
	entries  []Entry
	index    map[string]int
	loadedAt time.Time
}

// NewSnapshot indexes entries by id. When ids repeat the first entry wins.
func NewSnapshot(entries []Entry) *Snapshot {
	s := &Snapshot{
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[string]int, len(entries)),
		loadedAt: time.Now(),
	}
	for _, e := range entries {
		if _, dup := s.index[e.ID]; dup {
			continue
		}
		s.index[e.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s
}

var emptySnapshot = &Snapshot{index: map[string]int{}}

// Empty returns the snapshot used before any load has completed.
func Empty() *Snapshot { return emptySnapshot }

// Lookup returns the entry with the given id.
func (s *Snapshot) Lookup(id string) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns a copy of all entries in load order.
func (s *Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Filter returns the entries matching f, in load order.
func (s *Snapshot) Filter(f Filter) []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Snapshot) Len() int { return len(s.entries) }

// LoadedAt is the zero time for the empty snapshot.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }
