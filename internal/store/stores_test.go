package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admin-sync/internal/domain"
)

func TestApplyRoutesByEntityType(t *testing.T) {
	s := New()
	require.NoError(t, s.Apply(domain.User{ID: "u-1", Email: "a@example.com"}))
	require.NoError(t, s.Apply(ticket("t-1", domain.TicketStatusOpen, time.Now().UTC())))

	assert.Equal(t, 1, s.Len(domain.KindUsers))
	assert.Equal(t, 1, s.Len(domain.KindTickets))

	entity, ok := s.Get(domain.KindUsers, "u-1")
	require.True(t, ok)
	assert.Equal(t, domain.KindUsers, entity.EntityKind())
}

func TestSubscribersSeeEveryMutationBatch(t *testing.T) {
	s := New()
	var seen []domain.Kind
	unsubscribe := s.Subscribe(func(kind domain.Kind) { seen = append(seen, kind) })

	require.NoError(t, s.Apply(domain.User{ID: "u-1"}))
	require.NoError(t, s.Replace(domain.KindTickets, []domain.Entity{
		ticket("t-1", domain.TicketStatusOpen, time.Now().UTC()),
	}))
	s.Remove(domain.KindUsers, "u-1")

	assert.Equal(t, []domain.Kind{domain.KindUsers, domain.KindTickets, domain.KindUsers}, seen)

	unsubscribe()
	require.NoError(t, s.Apply(domain.User{ID: "u-2"}))
	assert.Len(t, seen, 3)
}

func TestStaleUpsertDoesNotNotify(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New()
	require.NoError(t, s.Apply(ticket("t-1", domain.TicketStatusResolved, base.Add(time.Minute))))

	notified := 0
	s.Subscribe(func(domain.Kind) { notified++ })
	require.NoError(t, s.Apply(ticket("t-1", domain.TicketStatusOpen, base)))

	assert.Zero(t, notified)
}

func TestMergeRejectsMismatchedBatch(t *testing.T) {
	s := New()
	err := s.Merge(domain.KindUsers, []domain.Entity{
		ticket("t-1", domain.TicketStatusOpen, time.Now().UTC()),
	})
	assert.Error(t, err)
}

func TestRemoveUnknownKindIsNoop(t *testing.T) {
	s := New()
	assert.False(t, s.Remove(domain.KindPosts, "missing"))
	assert.Nil(t, s.List(domain.Kind("bogus")))
}
