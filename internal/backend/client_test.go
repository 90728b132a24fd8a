package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/observability"
	"github.com/spec-kit/admin-sync/internal/session"
	"github.com/spec-kit/admin-sync/pkg/util"
)

// scriptedTransport fails the first n attempts at the transport level,
// then serves a fixed response.
type scriptedTransport struct {
	mu       sync.Mutex
	failures int
	status   int
	body     string
	calls    int
	lastReq  *http.Request
}

func (t *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.lastReq = req
	if t.calls <= t.failures {
		return nil, errors.New("connection refused")
	}
	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     make(http.Header),
	}, nil
}

func (t *scriptedTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func newTestClient(transport *scriptedTransport, maxRetries int) *Client {
	return NewClient(Options{
		BaseURL:    "http://backend.test",
		Session:    session.New("token", zap.NewNop()),
		HTTPClient: &http.Client{Transport: transport},
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
	})
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	transport := &scriptedTransport{failures: 2, status: 200, body: `[{"id":"u-1"}]`}
	client := newTestClient(transport, 3)

	raws, err := client.FetchCollection(context.Background(), domain.KindUsers)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "u-1", raws[0]["id"])
	assert.Equal(t, 3, transport.callCount())
}

func TestFetchSurfacesRecoverableAfterRetriesExhausted(t *testing.T) {
	transport := &scriptedTransport{failures: 10, status: 200}
	client := newTestClient(transport, 2)

	_, err := client.FetchCollection(context.Background(), domain.KindUsers)
	require.Error(t, err)
	assert.Equal(t, 3, transport.callCount(), "initial attempt plus two retries")

	domainErr := util.ToDomainError(err)
	assert.Equal(t, "BACKEND_UNAVAILABLE", domainErr.Code)
}

func TestAuthFailureIsNeverRetried(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusUnauthorized, body: `{"message":"expired"}`}
	client := newTestClient(transport, 3)

	_, err := client.FetchCollection(context.Background(), domain.KindTickets)
	assert.ErrorIs(t, err, util.ErrAuthRequired)
	assert.Equal(t, 1, transport.callCount())
}

func TestForbiddenMapsToAuthRequired(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusForbidden}
	client := newTestClient(transport, 3)

	_, err := client.MutateUser(context.Background(), "u-1", UserActionSuspend)
	assert.ErrorIs(t, err, util.ErrAuthRequired)
}

func TestOtherStatusesSurfaceAsHTTPError(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusUnprocessableEntity, body: `{"message":"bad status"}`}
	client := newTestClient(transport, 3)

	_, err := client.SetPostStatus(context.Background(), "p-1", domain.PostStatusApproved)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.Equal(t, "bad status", httpErr.Message)
	assert.Equal(t, 1, transport.callCount(), "client errors are not retried")
}

func TestInvalidatedSessionShortCircuits(t *testing.T) {
	transport := &scriptedTransport{status: 200, body: `[]`}
	sess := session.New("token", zap.NewNop())
	client := NewClient(Options{
		BaseURL:    "http://backend.test",
		Session:    sess,
		HTTPClient: &http.Client{Transport: transport},
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
	})

	sess.Invalidate("test")
	_, err := client.FetchCollection(context.Background(), domain.KindPosts)
	assert.ErrorIs(t, err, util.ErrAuthRequired)
	assert.Zero(t, transport.callCount())
}

func TestRequestCarriesBearerAndCorrelation(t *testing.T) {
	transport := &scriptedTransport{status: 200, body: `[]`}
	client := newTestClient(transport, 1)

	_, err := client.FetchCollection(context.Background(), domain.KindReports)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", transport.lastReq.Header.Get("Authorization"))
	assert.NotEmpty(t, transport.lastReq.Header.Get("X-Correlation-Id"))
}

func TestDecodeAcceptsDataEnvelope(t *testing.T) {
	transport := &scriptedTransport{status: 200, body: `{"data":[{"id":"a-1"}]}`}
	client := newTestClient(transport, 1)

	raws, err := client.FetchCollection(context.Background(), domain.KindAnnouncements)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "a-1", raws[0]["id"])
}
