package events

import (
	"encoding/json"

	"github.com/spec-kit/admin-sync/internal/domain"
)

// EventType enumerates supported push event identifiers.
type EventType string

const (
	EventEntityCreated EventType = "entityCreated"
	EventEntityUpdated EventType = "entityUpdated"
	EventEntityDeleted EventType = "entityDeleted"
)

// Event is one typed message from the push channel.
type Event struct {
	Kind       EventType       `json:"kind"`
	EntityKind domain.Kind     `json:"entityKind"`
	Payload    json.RawMessage `json:"payload"`
}

// DeletePayload is the minimal payload of an entityDeleted event.
type DeletePayload struct {
	ID string `json:"id"`
	// Some backend versions emit Mongo-style identifiers.
	LegacyID string `json:"_id"`
}

// Key returns whichever identifier the payload carries.
func (p DeletePayload) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.LegacyID
}
