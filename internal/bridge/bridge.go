// Package bridge maintains the websocket push channel. Incoming frames
// are decoded into typed events and published synchronously to the
// dispatcher; the store-apply handlers registered there keep the
// collections current between reconciliation ticks. The bridge tracks a
// process-wide connected/disconnected flag and redials on its check
// interval until closed. Push delivery is best effort even while
// nominally connected, which is why reconciliation never stops.
package bridge

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/events"
	"github.com/spec-kit/admin-sync/internal/session"
)

// ConnState is the push channel connectivity flag.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnected
)

func (s ConnState) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Options configures a Bridge.
type Options struct {
	URL           string
	Dispatcher    events.Dispatcher
	Session       *session.Session
	CheckInterval time.Duration
	Dialer        *websocket.Dialer
	Logger        *zap.Logger
}

// Bridge is the push channel client.
type Bridge struct {
	url           string
	dispatcher    events.Dispatcher
	session       *session.Session
	checkInterval time.Duration
	dialer        *websocket.Dialer
	logger        *zap.Logger
	clientID      string

	state atomic.Int32

	stateMu   sync.Mutex
	stateSubs map[int]func(ConnState)
	nextSub   int

	mu      sync.Mutex
	conn    *websocket.Conn
	closeCh chan struct{}
	started bool
	closed  bool
	done    chan struct{}
}

// New builds a Bridge. Connect starts it.
func New(opts Options) *Bridge {
	checkInterval := opts.CheckInterval
	if checkInterval <= 0 {
		checkInterval = 5 * time.Second
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Bridge{
		url:           opts.URL,
		dispatcher:    opts.Dispatcher,
		session:       opts.Session,
		checkInterval: checkInterval,
		dialer:        dialer,
		logger:        opts.Logger,
		clientID:      uuid.NewString(),
		stateSubs:     make(map[int]func(ConnState)),
		closeCh:       make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Connect starts the connection loop: dial, read until the connection
// drops, mark disconnected, redial on the check interval. The loop keeps
// going through backend outages until Close; the initial dial failing is
// an outage like any other, not a startup error.
func (b *Bridge) Connect(ctx context.Context) {
	b.mu.Lock()
	if b.started || b.closed {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go b.run(ctx)
}

// Close stops the loop and drops the connection. Mandatory teardown:
// without it the read loop keeps feeding a store nobody observes.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.closeCh)
	conn := b.conn
	started := b.started
	b.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}
	if started {
		<-b.done
	}
}

// State returns the process-wide connectivity flag.
func (b *Bridge) State() ConnState {
	return ConnState(b.state.Load())
}

// Connected reports whether the channel is currently up.
func (b *Bridge) Connected() bool {
	return b.State() == StateConnected
}

// OnStateChange registers an observer of connectivity transitions and
// returns its disposer. Observers run synchronously on each transition,
// after the state flag has been swapped, so State() inside an observer
// already reads the new value.
func (b *Bridge) OnStateChange(fn func(ConnState)) func() {
	b.stateMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.stateSubs[id] = fn
	b.stateMu.Unlock()

	return func() {
		b.stateMu.Lock()
		delete(b.stateSubs, id)
		b.stateMu.Unlock()
	}
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-b.closeCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		conn, err := b.dial(ctx)
		if err != nil {
			b.logger.Debug("push channel dial failed", zap.Error(err))
			if !b.waitCheckInterval(ctx) {
				return
			}
			continue
		}

		b.setState(StateConnected)
		b.readLoop(ctx, conn)
		b.setState(StateDisconnected)

		if !b.waitCheckInterval(ctx) {
			return
		}
	}
}

func (b *Bridge) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("X-Client-Id", b.clientID)
	if token, ok := b.session.Token(); ok {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := b.dialer.DialContext(ctx, b.url, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	return conn, nil
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var event events.Event
		if err := conn.ReadJSON(&event); err != nil {
			select {
			case <-b.closeCh:
			default:
				b.logger.Warn("push channel read failed", zap.Error(err))
			}
			return
		}
		if event.Kind == "" {
			b.logger.Debug("push frame without event kind dropped")
			continue
		}
		b.dispatcher.Publish(ctx, event)
	}
}

func (b *Bridge) setState(state ConnState) {
	previous := ConnState(b.state.Swap(int32(state)))
	if previous == state {
		return
	}
	b.logger.Info("push channel state changed",
		zap.String("from", previous.String()),
		zap.String("to", state.String()))

	b.stateMu.Lock()
	observers := make([]func(ConnState), 0, len(b.stateSubs))
	for _, fn := range b.stateSubs {
		observers = append(observers, fn)
	}
	b.stateMu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

func (b *Bridge) waitCheckInterval(ctx context.Context) bool {
	timer := time.NewTimer(b.checkInterval)
	defer timer.Stop()
	select {
	case <-b.closeCh:
		return false
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
