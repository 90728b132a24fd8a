// Package store holds the synchronized in-memory collections. It is the
// single shared mutable resource of the daemon: every writer (refresh
// results, push events, admin action results) goes through the same
// upsert/remove/replace API, and version-aware upsert is what makes
// interleaved completions from concurrent sources safe.
package store

import (
	"sync"

	"github.com/spec-kit/admin-sync/internal/domain"
)

// Collection is one ordered, keyed container of entities of a single kind.
type Collection[T domain.Entity] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewCollection returns an empty collection.
func NewCollection[T domain.Entity]() *Collection[T] {
	return &Collection[T]{items: make(map[string]T)}
}

// Upsert inserts or updates by key. Idempotent and commutative across
// sources: an older version (by the entity's version marker) never
// regresses newer local state. Entities without a version marker on
// either side fall back to last-write-wins by arrival. Reports whether
// the stored state changed.
func (c *Collection[T]) Upsert(entity T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upsertLocked(entity)
}

// UpsertMany applies a batch of upserts, returning how many changed state.
func (c *Collection[T]) UpsertMany(entities []T) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := 0
	for _, entity := range entities {
		if c.upsertLocked(entity) {
			changed++
		}
	}
	return changed
}

// Remove deletes by key. Deletions are always explicit: the store never
// infers them from an entity's absence in a fetched batch. A later
// Upsert for the same key re-creates the entity.
func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	for i, key := range c.order {
		if key == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// ReplaceAll installs a full-collection fetch result. This is the
// documented authoritative replace used by the admin refresh: entities
// absent from the payload are dropped. Entities present are still
// version-compared so a stale payload cannot regress a newer local copy,
// e.g. one that already arrived over the push channel.
func (c *Collection[T]) ReplaceAll(entities []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make(map[string]T, len(entities))
	order := make([]string, 0, len(entities))
	for _, entity := range entities {
		id := entity.Key()
		if _, dup := items[id]; !dup {
			order = append(order, id)
		}
		if local, ok := c.items[id]; ok && newerThan(local, entity) {
			items[id] = local
			continue
		}
		items[id] = entity
	}
	c.items = items
	c.order = order
}

// MergeAll upserts a filtered fetch result without dropping entities the
// batch does not mention.
func (c *Collection[T]) MergeAll(entities []T) int {
	return c.UpsertMany(entities)
}

// Get resolves one entity by key.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entity, ok := c.items[id]
	return entity, ok
}

// List returns the entities in collection order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Len reports the number of stored entities.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) upsertLocked(entity T) bool {
	id := entity.Key()
	existing, ok := c.items[id]
	if ok && newerThan(existing, entity) {
		return false
	}
	if !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = entity
	return true
}

// newerThan reports whether the local copy is strictly newer than the
// incoming one. Comparison is wholesale by the version marker, never
// field-by-field; missing markers mean arrival order decides.
func newerThan(local, incoming domain.Entity) bool {
	lv, iv := local.Version(), incoming.Version()
	if lv.IsZero() || iv.IsZero() {
		return false
	}
	return iv.Before(lv)
}
