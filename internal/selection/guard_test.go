package selection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/store"
)

func newGuardFixture(t *testing.T) (*store.Stores, *MemorySlot, *Guard) {
	t.Helper()
	stores := store.New()
	slot := NewMemorySlot()
	guard := NewGuard(stores, slot, zap.NewNop())
	t.Cleanup(guard.Close)
	return stores, slot, guard
}

func openTicket(id string, updatedAt time.Time) domain.Ticket {
	return domain.Ticket{ID: id, Subject: "s", Status: domain.TicketStatusOpen, UpdatedAt: updatedAt}
}

func TestFocusClearsWhenEntityDisappears(t *testing.T) {
	stores, slot, guard := newGuardFixture(t)
	ctx := context.Background()

	require.NoError(t, stores.Apply(openTicket("t-1", time.Now().UTC())))
	require.NoError(t, guard.SetFocus(ctx, domain.KindTickets, "t-1"))

	stores.Remove(domain.KindTickets, "t-1")

	_, ok := guard.Current()
	assert.False(t, ok)
	_, _, stored, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.False(t, stored, "slot must clear with focus")
}

func TestFocusSurvivesEntityUpdate(t *testing.T) {
	stores, _, guard := newGuardFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, stores.Apply(openTicket("t-1", base)))
	require.NoError(t, guard.SetFocus(ctx, domain.KindTickets, "t-1"))

	newer := openTicket("t-1", base.Add(time.Minute))
	newer.Status = domain.TicketStatusResolved
	require.NoError(t, stores.Apply(newer))

	current, ok := guard.Current()
	require.True(t, ok)
	assert.Equal(t, newer.UpdatedAt, current.Version())
	assert.Equal(t, domain.TicketStatusResolved, current.(domain.Ticket).Status)
}

func TestFocusUnaffectedByOtherCollections(t *testing.T) {
	stores, _, guard := newGuardFixture(t)
	ctx := context.Background()

	require.NoError(t, stores.Apply(openTicket("t-1", time.Now().UTC())))
	require.NoError(t, guard.SetFocus(ctx, domain.KindTickets, "t-1"))

	require.NoError(t, stores.Apply(domain.User{ID: "u-1"}))
	stores.Remove(domain.KindUsers, "u-1")

	_, ok := guard.Current()
	assert.True(t, ok)
}

func TestSetFocusRequiresResolvableEntity(t *testing.T) {
	_, _, guard := newGuardFixture(t)
	err := guard.SetFocus(context.Background(), domain.KindTickets, "missing")
	assert.Error(t, err)
}

func TestRehydratedFocusSurvivesUntilFirstSync(t *testing.T) {
	stores, slot, guard := newGuardFixture(t)
	ctx := context.Background()

	require.NoError(t, slot.Store(ctx, domain.KindTickets, "t-1"))
	guard.Rehydrate(ctx)

	// Store churn before the authoritative fetch finishes must not clear
	// the provisional focus.
	require.NoError(t, stores.Apply(openTicket("t-2", time.Now().UTC())))

	require.NoError(t, stores.Apply(openTicket("t-1", time.Now().UTC())))
	guard.MarkSynced(domain.KindTickets)

	current, ok := guard.Current()
	require.True(t, ok)
	assert.Equal(t, "t-1", current.Key())
}

func TestRehydratedFocusClearsWhenEntityGone(t *testing.T) {
	stores, slot, guard := newGuardFixture(t)
	ctx := context.Background()

	require.NoError(t, slot.Store(ctx, domain.KindTickets, "t-404"))
	guard.Rehydrate(ctx)

	require.NoError(t, stores.Apply(openTicket("t-1", time.Now().UTC())))
	guard.MarkSynced(domain.KindTickets)

	_, ok := guard.Current()
	assert.False(t, ok)
	_, _, stored, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestClearFocusIsExplicitTransition(t *testing.T) {
	stores, _, guard := newGuardFixture(t)
	ctx := context.Background()

	require.NoError(t, stores.Apply(openTicket("t-1", time.Now().UTC())))
	require.NoError(t, guard.SetFocus(ctx, domain.KindTickets, "t-1"))
	guard.ClearFocus(ctx)

	_, ok := guard.Current()
	assert.False(t, ok)
}
