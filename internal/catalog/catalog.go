// Package catalog holds the listing catalog: the entry type, immutable
// snapshots of a load, the provider that owns the current snapshot, and the
// loaders that fill it (sqlite store, YAML seed file).
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a listing id is not in the catalog.
var ErrNotFound = errors.New("listing not found")

// Entry is a single listing. ID follows the AAA-000 identifier grammar.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Location    string   `json:"location" yaml:"location"`
	Type        string   `json:"type,omitempty" yaml:"type"`
	PriceMinor  int64    `json:"price_minor" yaml:"price_minor"`
	MediaRefs   []string `json:"media_refs" yaml:"media_refs"`
	Verified    bool     `json:"verified" yaml:"verified"`
	SafetyScore float64  `json:"safety_score" yaml:"safety_score"`
	Amenities   []string `json:"amenities,omitempty" yaml:"amenities"`
}

// Cover returns the first media reference, or "" when there is none.
func (e Entry) Cover() string {
	if len(e.MediaRefs) == 0 {
		return ""
	}
	return e.MediaRefs[0]
}

// Loader fetches a complete catalog. Each call replaces the previous snapshot
// wholesale; there is no incremental diffing.
type Loader interface {
	Load(ctx context.Context) ([]Entry, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]Entry, error)

func (f LoaderFunc) Load(ctx context.Context) ([]Entry, error) { return f(ctx) }

// Filter narrows a listing query. Zero values disable each criterion.
type Filter struct {
	Location      string
	MaxPriceMinor int64
	VerifiedOnly  bool
}

// Match reports whether e satisfies every set criterion. Location is a
// case-insensitive substring match.
func (f Filter) Match(e Entry) bool {
	if f.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.MaxPriceMinor > 0 && e.PriceMinor > f.MaxPriceMinor {
		return false
	}
	if f.VerifiedOnly && !e.Verified {
		return false
	}
	return true
}
