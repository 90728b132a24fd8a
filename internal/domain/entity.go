// Package domain holds the admin-facing entity types synchronized from
// the platform backend, one ordered keyed collection per kind.
package domain

import (
	"fmt"
	"time"
)

// Kind identifies one synchronized collection.
type Kind string

const (
	KindUsers         Kind = "users"
	KindPosts         Kind = "posts"
	KindReports       Kind = "reports"
	KindAnnouncements Kind = "announcements"
	KindTickets       Kind = "tickets"
)

// AllKinds returns every synchronized collection kind in fetch order.
func AllKinds() []Kind {
	return []Kind{KindUsers, KindPosts, KindReports, KindAnnouncements, KindTickets}
}

// ParseKind validates a collection identifier from the wire.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindUsers, KindPosts, KindReports, KindAnnouncements, KindTickets:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown collection kind %q", s)
}

// Entity is one synchronized record. Key is stable across updates;
// Version is the backend's modification marker, zero when the payload
// carries none.
type Entity interface {
	EntityKind() Kind
	Key() string
	Version() time.Time
}
