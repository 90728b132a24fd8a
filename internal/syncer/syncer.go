// Package syncer drives reconciliation: the concurrent full re-fetch of
// every collection that corrects whatever the push channel missed.
package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/ingest"
	"github.com/spec-kit/admin-sync/internal/observability"
	"github.com/spec-kit/admin-sync/internal/session"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// Fetcher pulls one collection's raw payloads. Satisfied by backend.Client.
type Fetcher interface {
	FetchCollection(ctx context.Context, kind domain.Kind) ([]map[string]any, error)
}

// Syncer fans fetches out across all kinds and applies the results.
// Manual refreshes and scheduled ticks share its single in-flight guard:
// a refresh requested while one runs is skipped, never queued.
type Syncer struct {
	fetcher Fetcher
	ingest  *ingest.Ingestor
	session *session.Session
	logger  *zap.Logger
	metrics *observability.Metrics

	inFlight atomic.Bool

	mu           sync.Mutex
	onKindSynced []func(domain.Kind)
}

// New constructs a Syncer.
func New(fetcher Fetcher, ing *ingest.Ingestor, sess *session.Session, logger *zap.Logger, metrics *observability.Metrics) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		ingest:  ing,
		session: sess,
		logger:  logger,
		metrics: metrics,
	}
}

// OnKindSynced registers a callback fired after a kind's collection has
// been refreshed from an authoritative fetch. The selection guard uses
// it to finish rehydration.
func (s *Syncer) OnKindSynced(fn func(domain.Kind)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onKindSynced = append(s.onKindSynced, fn)
}

// InFlight reports whether a refresh is currently running.
func (s *Syncer) InFlight() bool {
	return s.inFlight.Load()
}

// RefreshAll re-pulls every collection concurrently. Each kind succeeds
// or fails on its own: one kind's failure never blocks the others, and a
// failed kind's collection keeps its previous state. An auth failure
// anywhere invalidates the session (which fires the login redirect once,
// however many kinds fail with 401 at the same time). Returns
// util.ErrRefreshInFlight when a refresh is already running.
func (s *Syncer) RefreshAll(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return util.ErrRefreshInFlight
	}
	defer s.inFlight.Store(false)

	kinds := domain.AllKinds()
	results := make([]error, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind domain.Kind) {
			defer wg.Done()
			results[i] = s.refreshKind(ctx, kind)
		}(i, kind)
	}
	wg.Wait()

	var failures []error
	for i, kind := range kinds {
		err := results[i]
		if err == nil {
			s.metrics.RecordRefresh(string(kind), true)
			s.notifyKindSynced(kind)
			continue
		}
		s.metrics.RecordRefresh(string(kind), false)
		if errors.Is(err, util.ErrAuthRequired) {
			s.session.Invalidate("backend rejected credentials")
		}
		s.logger.Warn("collection refresh failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		failures = append(failures, err)
	}
	return errors.Join(failures...)
}

func (s *Syncer) refreshKind(ctx context.Context, kind domain.Kind) error {
	raws, err := s.fetcher.FetchCollection(ctx, kind)
	if err != nil {
		return err
	}
	return s.ingest.ReplaceRaw(kind, raws)
}

func (s *Syncer) notifyKindSynced(kind domain.Kind) {
	s.mu.Lock()
	callbacks := append([]func(domain.Kind){}, s.onKindSynced...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(kind)
	}
}
