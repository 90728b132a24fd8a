package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admin-sync/internal/domain"
)

func ticket(id string, status domain.TicketStatus, updatedAt time.Time) domain.Ticket {
	return domain.Ticket{ID: id, Subject: "s", Status: status, UpdatedAt: updatedAt}
}

func TestUpsertNewerVersionWinsEitherOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	older := ticket("t-1", domain.TicketStatusOpen, base)
	newer := ticket("t-1", domain.TicketStatusResolved, base.Add(time.Minute))

	forward := NewCollection[domain.Ticket]()
	forward.Upsert(older)
	forward.Upsert(newer)

	backward := NewCollection[domain.Ticket]()
	backward.Upsert(newer)
	assert.False(t, backward.Upsert(older), "stale upsert must not change state")

	for _, c := range []*Collection[domain.Ticket]{forward, backward} {
		got, ok := c.Get("t-1")
		require.True(t, ok)
		assert.Equal(t, domain.TicketStatusResolved, got.Status)
		assert.Equal(t, newer.UpdatedAt, got.Version())
	}
}

func TestUpsertWithoutVersionIsLastWriteWins(t *testing.T) {
	c := NewCollection[domain.Ticket]()
	c.Upsert(ticket("t-1", domain.TicketStatusOpen, time.Time{}))
	c.Upsert(ticket("t-1", domain.TicketStatusClosed, time.Time{}))

	got, _ := c.Get("t-1")
	assert.Equal(t, domain.TicketStatusClosed, got.Status)
}

func TestUpsertIsIdempotent(t *testing.T) {
	c := NewCollection[domain.Ticket]()
	entity := ticket("t-1", domain.TicketStatusOpen, time.Now().UTC())
	c.Upsert(entity)
	c.Upsert(entity)

	assert.Equal(t, 1, c.Len())
	assert.Len(t, c.List(), 1)
}

func TestRemoveWinsOverPrecedingStaleUpserts(t *testing.T) {
	c := NewCollection[domain.Ticket]()
	entity := ticket("t-1", domain.TicketStatusOpen, time.Now().UTC())
	c.Upsert(entity)
	c.Upsert(entity)
	require.True(t, c.Remove("t-1"))

	_, ok := c.Get("t-1")
	assert.False(t, ok)
	assert.False(t, c.Remove("t-1"))
}

func TestUpsertAfterRemoveRecreates(t *testing.T) {
	c := NewCollection[domain.Ticket]()
	entity := ticket("t-1", domain.TicketStatusOpen, time.Now().UTC())
	c.Upsert(entity)
	c.Remove("t-1")
	c.Upsert(entity)

	_, ok := c.Get("t-1")
	assert.True(t, ok)
}

func TestReplaceAllDropsAbsentEntities(t *testing.T) {
	c := NewCollection[domain.Ticket]()
	c.Upsert(ticket("t-1", domain.TicketStatusOpen, time.Now().UTC()))
	c.Upsert(ticket("t-2", domain.TicketStatusOpen, time.Now().UTC()))

	c.ReplaceAll([]domain.Ticket{ticket("t-2", domain.TicketStatusOpen, time.Now().UTC())})

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("t-1")
	assert.False(t, ok)
}

func TestReplaceAllKeepsNewerLocalCopy(t *testing.T) {
	// A push event delivered t-1 resolved before the fetch that started
	// earlier completed with the stale open copy.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCollection[domain.Ticket]()
	c.Upsert(ticket("t-1", domain.TicketStatusResolved, base.Add(time.Minute)))

	c.ReplaceAll([]domain.Ticket{ticket("t-1", domain.TicketStatusOpen, base)})

	got, ok := c.Get("t-1")
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)
}

func TestReplaceAllSetsPayloadOrder(t *testing.T) {
	c := NewCollection[domain.Ticket]()
	c.Upsert(ticket("t-9", domain.TicketStatusOpen, time.Now().UTC()))

	now := time.Now().UTC()
	c.ReplaceAll([]domain.Ticket{
		ticket("t-2", domain.TicketStatusOpen, now),
		ticket("t-1", domain.TicketStatusOpen, now),
	})

	listed := c.List()
	require.Len(t, listed, 2)
	assert.Equal(t, "t-2", listed[0].ID)
	assert.Equal(t, "t-1", listed[1].ID)
}

func TestMergeAllNeverInfersDeletions(t *testing.T) {
	c := NewCollection[domain.Ticket]()
	c.Upsert(ticket("t-1", domain.TicketStatusOpen, time.Now().UTC()))

	c.MergeAll([]domain.Ticket{ticket("t-2", domain.TicketStatusOpen, time.Now().UTC())})

	assert.Equal(t, 2, c.Len())
}

func TestStaleTicketPayloadCannotDropReplies(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	withReplies := domain.Ticket{
		ID:        "t-1",
		Status:    domain.TicketStatusInProgress,
		Replies:   []domain.TicketReply{{Message: "on it", IsAdmin: true, Timestamp: base}},
		UpdatedAt: base.Add(time.Minute),
	}
	stale := domain.Ticket{ID: "t-1", Status: domain.TicketStatusOpen, UpdatedAt: base}

	c := NewCollection[domain.Ticket]()
	c.Upsert(withReplies)
	c.Upsert(stale)

	got, _ := c.Get("t-1")
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "on it", got.Replies[0].Message)
}
