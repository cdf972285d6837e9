package routereg

import (
	"context"
	"sync/atomic"
)

type slugSnapshot struct {
	byID  map[string]string
	known map[string]struct{}
}

func buildSlugSnapshot(byID map[string]string) *slugSnapshot {
	known := make(map[string]struct{}, len(byID))
	for _, slug := range byID {
		known[slug] = struct{}{}
	}
	return &slugSnapshot{byID: byID, known: known}
}

// SlugIndex answers "is this path segment a known slug" for URL
// normalization. The index is an immutable snapshot swapped atomically:
// concurrent readers see either the old or the new complete version, and a
// failed rebuild leaves the previous good snapshot in place.
type SlugIndex struct {
	source   SlugSource
	snapshot atomic.Pointer[slugSnapshot]
}

func NewSlugIndex(source SlugSource) *SlugIndex {
	idx := &SlugIndex{source: source}
	idx.snapshot.Store(buildSlugSnapshot(map[string]string{}))
	return idx
}

// Rebuild replaces the whole index from the source. O(total slugged
// entities), run at boot and on demand.
func (i *SlugIndex) Rebuild(ctx context.Context) error {
	if i.source == nil {
		return nil
	}
	byID, err := i.source.Slugs(ctx)
	if err != nil {
		return err
	}
	i.snapshot.Store(buildSlugSnapshot(byID))
	return nil
}

// Patch replaces a single entity's slug after a create or update, without a
// full source scan. The snapshot is copied, never mutated in place.
func (i *SlugIndex) Patch(id, slug string) {
	old := i.snapshot.Load()
	byID := make(map[string]string, len(old.byID)+1)
	for k, v := range old.byID {
		byID[k] = v
	}
	byID[id] = slug
	i.snapshot.Store(buildSlugSnapshot(byID))
}

// Known reports whether the segment is a slug of any known entity.
func (i *SlugIndex) Known(segment string) bool {
	_, ok := i.snapshot.Load().known[segment]
	return ok
}
