package selection

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spec-kit/admin-sync/internal/domain"
	"github.com/spec-kit/admin-sync/internal/persistence"
)

// Slot is the durable key-value slot holding the focused entity
// reference across restarts. Written on SetFocus, cleared with focus.
type Slot interface {
	Load(ctx context.Context) (domain.Kind, string, bool, error)
	Store(ctx context.Context, kind domain.Kind, id string) error
	Clear(ctx context.Context) error
}

type slotRecord struct {
	Kind domain.Kind `json:"kind"`
	ID   string      `json:"id"`
}

// RedisSlot persists the focus reference in a single redis key.
type RedisSlot struct {
	redis *persistence.Redis
	key   string
}

// NewRedisSlot builds a Slot over the given redis key.
func NewRedisSlot(r *persistence.Redis, key string) *RedisSlot {
	return &RedisSlot{redis: r, key: key}
}

func (s *RedisSlot) Load(ctx context.Context) (domain.Kind, string, bool, error) {
	raw, ok, err := s.redis.GetValue(ctx, s.key)
	if err != nil || !ok {
		return "", "", false, err
	}
	var record slotRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// A corrupt slot is treated as empty rather than fatal.
		return "", "", false, nil
	}
	if record.ID == "" {
		return "", "", false, nil
	}
	if _, err := domain.ParseKind(string(record.Kind)); err != nil {
		return "", "", false, nil
	}
	return record.Kind, record.ID, true, nil
}

func (s *RedisSlot) Store(ctx context.Context, kind domain.Kind, id string) error {
	raw, err := json.Marshal(slotRecord{Kind: kind, ID: id})
	if err != nil {
		return err
	}
	return s.redis.SetValue(ctx, s.key, string(raw))
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	return s.redis.DeleteValue(ctx, s.key)
}

// MemorySlot is an in-process Slot for tests and redis-less runs.
type MemorySlot struct {
	mu     sync.Mutex
	record slotRecord
	set    bool
}

func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

func (s *MemorySlot) Load(ctx context.Context) (domain.Kind, string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", "", false, nil
	}
	return s.record.Kind, s.record.ID, true, nil
}

func (s *MemorySlot) Store(ctx context.Context, kind domain.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = slotRecord{Kind: kind, ID: id}
	s.set = true
	return nil
}

func (s *MemorySlot) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = slotRecord{}
	s.set = false
	return nil
}
