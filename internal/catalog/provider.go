package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/comigor/bodi-go/internal/logger"
)

// Provider owns the current catalog snapshot for one view. Readers call
// Snapshot at any time; before the first successful Refresh they get an empty
// snapshot. Refresh swaps the snapshot atomically and then notifies
// subscribers, so anything correlated against the old snapshot can re-run.
type Provider struct {
	loader  Loader
	current atomic.Pointer[Snapshot]
	group   singleflight.Group

	mu          sync.Mutex
	subscribers []func(*Snapshot)
}

// NewProvider creates a provider that loads through l.
func NewProvider(l Loader) *Provider {
	p := &Provider{loader: l}
	p.current.Store(Empty())
	return p
}

// NewStaticProvider returns a provider already holding entries. Refresh on it
// reloads the same entries.
func NewStaticProvider(entries []Entry) *Provider {
	p := NewProvider(LoaderFunc(func(context.Context) ([]Entry, error) { return entries, nil }))
	p.current.Store(NewSnapshot(entries))
	return p
}

// Snapshot returns the current snapshot. It never returns nil.
func (p *Provider) Snapshot() *Snapshot {
	return p.current.Load()
}

// Loaded reports whether a load has completed.
func (p *Provider) Loaded() bool {
	return p.current.Load() != emptySnapshot
}

// Subscribe registers fn to run after every snapshot swap.
func (p *Provider) Subscribe(fn func(*Snapshot)) {
	p.mu.Lock()
	p.subscribers = append(p.subscribers, fn)
	p.mu.Unlock()
}

// Refresh loads a fresh catalog and replaces the current snapshot. Concurrent
// calls share a single load. On error the previous snapshot stays in place.
func (p *Provider) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, shared := p.group.Do("refresh", func() (any, error) {
		entries, err := p.loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		snap := NewSnapshot(entries)
		p.current.Store(snap)
		p.notify(snap)
		return snap, nil
	})
	if err != nil {
		logger.L.Warn("catalog refresh failed; keeping previous snapshot", "error", err)
		return p.Snapshot(), fmt.Errorf("refresh catalog: %w", err)
	}
	snap := v.(*Snapshot)
	logger.L.Debug("catalog refreshed", "entries", snap.Len(), "shared", shared)
	return snap, nil
}

func (p *Provider) notify(snap *Snapshot) {
	p.mu.Lock()
	subs := make([]func(*Snapshot), len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
