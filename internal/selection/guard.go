// Package selection keeps the single "currently focused entity"
// reference (the open detail view) consistent with the backing store.
// The focused entity survives refreshes and push updates; when it
// disappears from the store, focus clears deterministically.
package selection

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/store"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// Guard tracks the focused entity. Valid transitions only:
// unfocused -> focused (SetFocus), focused -> focused (entity mutates),
// focused -> unfocused (ClearFocus, or entity removed from the store).
type Guard struct {
	stores *store.Stores
	slot   Slot
	logger *zap.Logger

	mu        sync.Mutex
	kind      domain.Kind
	id        string
	focused   bool
	validated bool

	unsubscribe func()
	closeOnce   sync.Once
}

// NewGuard builds a Guard and subscribes it to store mutations.
func NewGuard(stores *store.Stores, slot Slot, logger *zap.Logger) *Guard {
	g := &Guard{stores: stores, slot: slot, logger: logger}
	g.unsubscribe = stores.Subscribe(g.onStoreChanged)
	return g
}

// Close unsubscribes from the store. Mandatory teardown.
func (g *Guard) Close() {
	g.closeOnce.Do(g.unsubscribe)
}

// Rehydrate restores focus from the durable slot. The restored
// reference stays provisional until the entity's collection completes
// its first authoritative fetch (MarkSynced), at which point a focus
// that no longer resolves is cleared.
func (g *Guard) Rehydrate(ctx context.Context) {
	kind, id, ok, err := g.slot.Load(ctx)
	if err != nil {
		g.logger.Warn("focus slot unreadable", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	g.mu.Lock()
	g.kind, g.id = kind, id
	g.focused = true
	g.validated = false
	g.mu.Unlock()

	g.logger.Info("focus rehydrated",
		zap.String("kind", string(kind)),
		zap.String("id", id))
}

// SetFocus focuses an entity that resolves in the store.
func (g *Guard) SetFocus(ctx context.Context, kind domain.Kind, id string) error {
	if _, ok := g.stores.Get(kind, id); !ok {
		return util.NewNotFound(string(kind), map[string]any{"id": id})
	}

	g.mu.Lock()
	g.kind, g.id = kind, id
	g.focused = true
	g.validated = true
	g.mu.Unlock()

	if err := g.slot.Store(ctx, kind, id); err != nil {
		g.logger.Warn("focus slot write failed", zap.Error(err))
	}
	return nil
}

// ClearFocus drops focus explicitly.
func (g *Guard) ClearFocus(ctx context.Context) {
	g.mu.Lock()
	wasFocused := g.focused
	g.focused = false
	g.validated = false
	g.kind, g.id = "", ""
	g.mu.Unlock()

	if wasFocused {
		if err := g.slot.Clear(ctx); err != nil {
			g.logger.Warn("focus slot clear failed", zap.Error(err))
		}
	}
}

// Current resolves the focused entity through the store, so every read
// reflects the latest stored version, never a stale snapshot.
func (g *Guard) Current() (domain.Entity, bool) {
	g.mu.Lock()
	focused, kind, id := g.focused, g.kind, g.id
	g.mu.Unlock()

	if !focused {
		return nil, false
	}
	return g.stores.Get(kind, id)
}

// MarkSynced finishes rehydration for a kind whose collection has been
// authoritatively fetched: a provisional focus that does not resolve is
// cleared.
func (g *Guard) MarkSynced(kind domain.Kind) {
	g.mu.Lock()
	if !g.focused || g.validated || g.kind != kind {
		g.mu.Unlock()
		return
	}
	g.validated = true
	kindCopy, id := g.kind, g.id
	g.mu.Unlock()

	if _, ok := g.stores.Get(kindCopy, id); !ok {
		g.logger.Info("rehydrated focus no longer exists, clearing",
			zap.String("kind", string(kindCopy)),
			zap.String("id", id))
		g.ClearFocus(context.Background())
	}
}

// onStoreChanged runs after every mutation batch of the stores.
func (g *Guard) onStoreChanged(kind domain.Kind) {
	g.mu.Lock()
	if !g.focused || !g.validated || g.kind != kind {
		g.mu.Unlock()
		return
	}
	kindCopy, id := g.kind, g.id
	g.mu.Unlock()

	if _, ok := g.stores.Get(kindCopy, id); !ok {
		g.ClearFocus(context.Background())
	}
}
