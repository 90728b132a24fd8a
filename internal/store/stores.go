package store

import (
	"fmt"
	"sync"

	"github.com/spec-kit/admin-sync/internal/domain"
)

// Stores aggregates one collection per entity kind and fans mutation
// notifications out to observers (the selection guard, freshness
// tracking). Notifications fire after the mutation batch completes,
// outside the collection locks.
type Stores struct {
	users         *Collection[domain.User]
	posts         *Collection[domain.Post]
	reports       *Collection[domain.Report]
	announcements *Collection[domain.Announcement]
	tickets       *Collection[domain.Ticket]

	mu      sync.Mutex
	subs    map[int]func(domain.Kind)
	nextSub int
}

// New constructs empty stores for every kind.
func New() *Stores {
	return &Stores{
		users:         NewCollection[domain.User](),
		posts:         NewCollection[domain.Post](),
		reports:       NewCollection[domain.Report](),
		announcements: NewCollection[domain.Announcement](),
		tickets:       NewCollection[domain.Ticket](),
		subs:          make(map[int]func(domain.Kind)),
	}
}

// Typed accessors for read paths that know their kind.

func (s *Stores) Users() *Collection[domain.User]                 { return s.users }
func (s *Stores) Posts() *Collection[domain.Post]                 { return s.posts }
func (s *Stores) Reports() *Collection[domain.Report]             { return s.reports }
func (s *Stores) Announcements() *Collection[domain.Announcement] { return s.announcements }
func (s *Stores) Tickets() *Collection[domain.Ticket]             { return s.tickets }

// Subscribe registers a mutation observer and returns its disposer.
// Observers run synchronously after each mutation batch.
func (s *Stores) Subscribe(fn func(domain.Kind)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Apply upserts one canonical entity into its kind's collection.
func (s *Stores) Apply(entity domain.Entity) error {
	kind := entity.EntityKind()
	changed, err := s.apply(kind, entity)
	if err != nil {
		return err
	}
	if changed {
		s.notify(kind)
	}
	return nil
}

// Replace installs an authoritative full-collection refresh result.
func (s *Stores) Replace(kind domain.Kind, entities []domain.Entity) error {
	switch kind {
	case domain.KindUsers:
		typed, err := collect[domain.User](kind, entities)
		if err != nil {
			return err
		}
		s.users.ReplaceAll(typed)
	case domain.KindPosts:
		typed, err := collect[domain.Post](kind, entities)
		if err != nil {
			return err
		}
		s.posts.ReplaceAll(typed)
	case domain.KindReports:
		typed, err := collect[domain.Report](kind, entities)
		if err != nil {
			return err
		}
		s.reports.ReplaceAll(typed)
	case domain.KindAnnouncements:
		typed, err := collect[domain.Announcement](kind, entities)
		if err != nil {
			return err
		}
		s.announcements.ReplaceAll(typed)
	case domain.KindTickets:
		typed, err := collect[domain.Ticket](kind, entities)
		if err != nil {
			return err
		}
		s.tickets.ReplaceAll(typed)
	default:
		return fmt.Errorf("store: unknown entity kind %q", kind)
	}
	s.notify(kind)
	return nil
}

// Merge upserts a filtered fetch result without inferring deletions.
func (s *Stores) Merge(kind domain.Kind, entities []domain.Entity) error {
	changed := 0
	for _, entity := range entities {
		if entity.EntityKind() != kind {
			return fmt.Errorf("store: %s batch contains %s entity", kind, entity.EntityKind())
		}
		ok, err := s.apply(kind, entity)
		if err != nil {
			return err
		}
		if ok {
			changed++
		}
	}
	if changed > 0 {
		s.notify(kind)
	}
	return nil
}

// Remove deletes by key, reporting whether the entity existed.
func (s *Stores) Remove(kind domain.Kind, id string) bool {
	var removed bool
	switch kind {
	case domain.KindUsers:
		removed = s.users.Remove(id)
	case domain.KindPosts:
		removed = s.posts.Remove(id)
	case domain.KindReports:
		removed = s.reports.Remove(id)
	case domain.KindAnnouncements:
		removed = s.announcements.Remove(id)
	case domain.KindTickets:
		removed = s.tickets.Remove(id)
	}
	if removed {
		s.notify(kind)
	}
	return removed
}

// Get resolves one entity dynamically by kind and key.
func (s *Stores) Get(kind domain.Kind, id string) (domain.Entity, bool) {
	switch kind {
	case domain.KindUsers:
		return asEntity(s.users.Get(id))
	case domain.KindPosts:
		return asEntity(s.posts.Get(id))
	case domain.KindReports:
		return asEntity(s.reports.Get(id))
	case domain.KindAnnouncements:
		return asEntity(s.announcements.Get(id))
	case domain.KindTickets:
		return asEntity(s.tickets.Get(id))
	}
	return nil, false
}

// List returns a kind's entities in collection order.
func (s *Stores) List(kind domain.Kind) []domain.Entity {
	switch kind {
	case domain.KindUsers:
		return asEntities(s.users.List())
	case domain.KindPosts:
		return asEntities(s.posts.List())
	case domain.KindReports:
		return asEntities(s.reports.List())
	case domain.KindAnnouncements:
		return asEntities(s.announcements.List())
	case domain.KindTickets:
		return asEntities(s.tickets.List())
	}
	return nil
}

// Len reports a kind's entity count.
func (s *Stores) Len(kind domain.Kind) int {
	switch kind {
	case domain.KindUsers:
		return s.users.Len()
	case domain.KindPosts:
		return s.posts.Len()
	case domain.KindReports:
		return s.reports.Len()
	case domain.KindAnnouncements:
		return s.announcements.Len()
	case domain.KindTickets:
		return s.tickets.Len()
	}
	return 0
}

func (s *Stores) apply(kind domain.Kind, entity domain.Entity) (bool, error) {
	switch typed := entity.(type) {
	case domain.User:
		return s.users.Upsert(typed), nil
	case domain.Post:
		return s.posts.Upsert(typed), nil
	case domain.Report:
		return s.reports.Upsert(typed), nil
	case domain.Announcement:
		return s.announcements.Upsert(typed), nil
	case domain.Ticket:
		return s.tickets.Upsert(typed), nil
	}
	return false, fmt.Errorf("store: unsupported entity type for kind %q", kind)
}

func (s *Stores) notify(kind domain.Kind) {
	s.mu.Lock()
	observers := make([]func(domain.Kind), 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(kind)
	}
}

func collect[T domain.Entity](kind domain.Kind, entities []domain.Entity) ([]T, error) {
	typed := make([]T, 0, len(entities))
	for _, entity := range entities {
		t, ok := entity.(T)
		if !ok {
			return nil, fmt.Errorf("store: %s batch contains %T", kind, entity)
		}
		typed = append(typed, t)
	}
	return typed, nil
}

func asEntity[T domain.Entity](entity T, ok bool) (domain.Entity, bool) {
	if !ok {
		return nil, false
	}
	return entity, true
}

func asEntities[T domain.Entity](typed []T) []domain.Entity {
	out := make([]domain.Entity, 0, len(typed))
	for _, entity := range typed {
		out = append(out, entity)
	}
	return out
}
