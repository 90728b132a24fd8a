package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the sync loops.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	refreshCount  map[string]int64
	pushCount     map[string]int64
	retryCount    int64
	handlerPanics int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		refreshCount: make(map[string]int64),
		pushCount:    make(map[string]int64),
	}
}

// RecordRequest increments counters for UI API requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRefresh counts one per-collection refresh outcome.
func (m *Metrics) RecordRefresh(kind string, ok bool) {
	if m == nil {
		return
	}
	key := kind + "|" + strconv.FormatBool(ok)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCount[key]++
}

// RecordRetry counts one transient fetch retry.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount++
}

// RecordPushEvent counts one applied push event.
func (m *Metrics) RecordPushEvent(eventType, kind string) {
	if m == nil {
		return
	}
	key := eventType + "|" + kind
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushCount[key]++
}

// RecordHandlerPanic counts one recovered push handler panic.
func (m *Metrics) RecordHandlerPanic() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlerPanics++
}

// Snapshot returns a flat copy of all counters for the stats endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64)
	for k, v := range m.requestCount {
		out["request|"+k] = v
	}
	for k, v := range m.errorCount {
		out["error|"+k] = v
	}
	for k, v := range m.refreshCount {
		out["refresh|"+k] = v
	}
	for k, v := range m.pushCount {
		out["push|"+k] = v
	}
	out["retry"] = m.retryCount
	out["handler_panic"] = m.handlerPanics
	return out
}
