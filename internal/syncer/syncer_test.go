package syncer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/ingest"
	"github.com/spec-kit/admin-sync/internal/observability"
	"github.com/spec-kit/admin-sync/internal/session"
	"github.com/spec-kit/admin-sync/internal/store"
	"github.com/spec-kit/admin-sync/pkg/util"
)

type stubFetcher struct {
	mu       sync.Mutex
	calls    map[domain.Kind]int
	payloads map[domain.Kind][]map[string]any
	errs     map[domain.Kind]error
	block    chan struct{}
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		calls:    make(map[domain.Kind]int),
		payloads: make(map[domain.Kind][]map[string]any),
		errs:     make(map[domain.Kind]error),
	}
}

func (f *stubFetcher) FetchCollection(ctx context.Context, kind domain.Kind) ([]map[string]any, error) {
	f.mu.Lock()
	f.calls[kind]++
	payload, err, block := f.payloads[kind], f.errs[kind], f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (f *stubFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type fixture struct {
	fetcher *stubFetcher
	stores  *store.Stores
	session *session.Session
	syncer  *Syncer
}

func newFixture() *fixture {
	logger := zap.NewNop()
	fetcher := newStubFetcher()
	stores := store.New()
	sess := session.New("token", logger)
	metrics := observability.NewMetrics()
	ing := ingest.New(stores, logger, metrics)
	return &fixture{
		fetcher: fetcher,
		stores:  stores,
		session: sess,
		syncer:  New(fetcher, ing, sess, logger, metrics),
	}
}

func TestRefreshAllPullsEveryCollectionOnce(t *testing.T) {
	fx := newFixture()
	fx.fetcher.payloads[domain.KindUsers] = []map[string]any{{"id": "u-1"}}

	require.NoError(t, fx.syncer.RefreshAll(context.Background()))

	assert.Equal(t, len(domain.AllKinds()), fx.fetcher.totalCalls())
	assert.Equal(t, 1, fx.stores.Len(domain.KindUsers))
}

func TestOverlappingRefreshIsSkipped(t *testing.T) {
	fx := newFixture()
	fx.fetcher.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- fx.syncer.RefreshAll(context.Background()) }()

	require.Eventually(t, fx.syncer.InFlight, time.Second, time.Millisecond)
	assert.ErrorIs(t, fx.syncer.RefreshAll(context.Background()), util.ErrRefreshInFlight)

	close(fx.fetcher.block)
	require.NoError(t, <-done)

	// Only the first refresh ever reached the fetcher.
	assert.Equal(t, len(domain.AllKinds()), fx.fetcher.totalCalls())
}

func TestPartialFailureIsolation(t *testing.T) {
	fx := newFixture()
	previous := map[string]any{"id": "r-old", "reason": "spam"}
	fx.fetcher.payloads[domain.KindReports] = []map[string]any{previous}
	fx.fetcher.payloads[domain.KindUsers] = []map[string]any{{"id": "u-1"}}
	require.NoError(t, fx.syncer.RefreshAll(context.Background()))

	fx.fetcher.errs[domain.KindReports] = fmt.Errorf("backend http 500: boom")
	fx.fetcher.payloads[domain.KindUsers] = []map[string]any{{"id": "u-1"}, {"id": "u-2"}}

	err := fx.syncer.RefreshAll(context.Background())
	require.Error(t, err)

	assert.Equal(t, 2, fx.stores.Len(domain.KindUsers), "healthy collection still updates")
	_, ok := fx.stores.Get(domain.KindReports, "r-old")
	assert.True(t, ok, "failed collection keeps previous state")
}

func TestAuthFailureInvalidatesSessionExactlyOnce(t *testing.T) {
	fx := newFixture()
	for _, kind := range domain.AllKinds() {
		fx.fetcher.errs[kind] = fmt.Errorf("GET /%s: %w", kind, util.ErrAuthRequired)
	}

	redirects := 0
	fx.session.OnAuthRequired(func() { redirects++ })

	err := fx.syncer.RefreshAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrAuthRequired)
	assert.Equal(t, 1, redirects, "all five 401s collapse into one redirect")

	_, ok := fx.session.Token()
	assert.False(t, ok, "credentials cleared")
}

func TestFetchThenNewerPushConverges(t *testing.T) {
	fx := newFixture()
	fx.fetcher.payloads[domain.KindTickets] = []map[string]any{
		{"id": "T1", "status": "open", "updatedAt": "2025-06-01T12:00:00Z"},
	}
	require.NoError(t, fx.syncer.RefreshAll(context.Background()))

	ing := ingest.New(fx.stores, zap.NewNop(), observability.NewMetrics())
	_, err := ing.ApplyRaw(domain.KindTickets, map[string]any{
		"id": "T1", "status": "resolved", "updatedAt": "2025-06-01T12:01:00Z",
	})
	require.NoError(t, err)

	entity, ok := fx.stores.Get(domain.KindTickets, "T1")
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusResolved, entity.(domain.Ticket).Status)
}

func TestPushBeforeFetchSurvivesAuthoritativeReplace(t *testing.T) {
	fx := newFixture()
	ing := ingest.New(fx.stores, zap.NewNop(), observability.NewMetrics())

	// Push delivers T2 before any fetch completed, with a newer marker
	// than the stale fetch that was already on the wire.
	_, err := ing.ApplyRaw(domain.KindTickets, map[string]any{
		"id": "T2", "status": "in_progress", "updatedAt": "2025-06-01T12:05:00Z",
	})
	require.NoError(t, err)

	fx.fetcher.payloads[domain.KindTickets] = []map[string]any{
		{"id": "T2", "status": "open", "updatedAt": "2025-06-01T12:00:00Z"},
	}
	require.NoError(t, fx.syncer.RefreshAll(context.Background()))

	entity, ok := fx.stores.Get(domain.KindTickets, "T2")
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusInProgress, entity.(domain.Ticket).Status)
}

func TestKindSyncedCallbackFiresOnSuccessOnly(t *testing.T) {
	fx := newFixture()
	fx.fetcher.errs[domain.KindReports] = fmt.Errorf("backend http 502: down")

	var synced []domain.Kind
	var mu sync.Mutex
	fx.syncer.OnKindSynced(func(kind domain.Kind) {
		mu.Lock()
		synced = append(synced, kind)
		mu.Unlock()
	})

	_ = fx.syncer.RefreshAll(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, synced, len(domain.AllKinds())-1)
	assert.NotContains(t, synced, domain.KindReports)
}
