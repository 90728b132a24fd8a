// Package ingest is the single write path into the collection stores.
// Refresh results, push events, and admin action results all funnel
// through it, so an optimistic local update and its later push
// confirmation run literally the same code and converge to a no-op
// under the store's idempotent upsert.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/events"
	"github.com/spec-kit/admin-sync/internal/normalize"
	"github.com/spec-kit/admin-sync/internal/observability"
	"github.com/spec-kit/admin-sync/internal/store"
)

// Ingestor normalizes raw backend payloads and applies them to the stores.
type Ingestor struct {
	stores  *store.Stores
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New constructs an Ingestor.
func New(stores *store.Stores, logger *zap.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{stores: stores, logger: logger, metrics: metrics}
}

// ApplyRaw normalizes one payload and upserts it into its collection.
func (i *Ingestor) ApplyRaw(kind domain.Kind, raw map[string]any) (domain.Entity, error) {
	entity, err := normalize.Entity(kind, raw)
	if err != nil {
		return nil, err
	}
	if err := i.stores.Apply(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// ApplyRemove deletes one entity by key.
func (i *Ingestor) ApplyRemove(kind domain.Kind, id string) bool {
	return i.stores.Remove(kind, id)
}

// ReplaceRaw normalizes a full-collection fetch result and installs it
// as the authoritative state for that collection.
func (i *Ingestor) ReplaceRaw(kind domain.Kind, raws []map[string]any) error {
	entities, err := normalize.Many(kind, raws)
	if err != nil {
		return err
	}
	return i.stores.Replace(kind, entities)
}

// RegisterHandlers subscribes the store-apply path to the push channel.
// The returned subscriptions are the caller's to dispose on teardown.
func (i *Ingestor) RegisterHandlers(dispatcher events.Dispatcher) []*events.Subscription {
	return []*events.Subscription{
		dispatcher.Subscribe(events.EventEntityCreated, i.handleUpsertEvent),
		dispatcher.Subscribe(events.EventEntityUpdated, i.handleUpsertEvent),
		dispatcher.Subscribe(events.EventEntityDeleted, i.handleDeleteEvent),
	}
}

func (i *Ingestor) handleUpsertEvent(ctx context.Context, event events.Event) error {
	kind, err := domain.ParseKind(string(event.EntityKind))
	if err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(event.Payload, &raw); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Kind, err)
	}
	entity, err := i.ApplyRaw(kind, raw)
	if err != nil {
		return err
	}
	i.metrics.RecordPushEvent(string(event.Kind), string(kind))
	i.logger.Debug("push event applied",
		zap.String("event", string(event.Kind)),
		zap.String("entity_kind", string(kind)),
		zap.String("id", entity.Key()))
	return nil
}

func (i *Ingestor) handleDeleteEvent(ctx context.Context, event events.Event) error {
	kind, err := domain.ParseKind(string(event.EntityKind))
	if err != nil {
		return err
	}
	var payload events.DeletePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode delete payload: %w", err)
	}
	id := payload.Key()
	if id == "" {
		return fmt.Errorf("delete event for %s has no identifier", kind)
	}
	removed := i.ApplyRemove(kind, id)
	i.metrics.RecordPushEvent(string(events.EventEntityDeleted), string(kind))
	i.logger.Debug("push delete applied",
		zap.String("entity_kind", string(kind)),
		zap.String("id", id),
		zap.Bool("removed", removed))
	return nil
}
