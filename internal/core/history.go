package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrHistoryUnavailable wraps failures of the backing history store.
var ErrHistoryUnavailable = errors.New("history store unavailable")

// ParseStatus is the outcome of one parse.
type ParseStatus string

const (
	StatusOK     ParseStatus = "ok"
	StatusFailed ParseStatus = "failed"
)

// HistoryEntry records one scene parse.
type HistoryEntry struct {
	ID        uuid.UUID     `json:"id"`
	Filename  string        `json:"filename"`
	Bytes     int64         `json:"bytes"`
	Routes    int           `json:"routes"`
	Channels  int           `json:"channels"`
	Outputs   int           `json:"outputs"`
	Duration  time.Duration `json:"duration_ns"`
	Status    ParseStatus   `json:"status"`
	ErrorCode string        `json:"error_code,omitempty"`
	IPAddress string        `json:"ip_address,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// HistoryStore persists parse history. Recent returns newest first.
type HistoryStore interface {
	Record(ctx context.Context, entry HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// MemoryHistory keeps the last N entries in a ring. It is the store used
// when no database is configured.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	next    int
	full    bool
}

// NewMemoryHistory keeps up to capacity entries (at least one).
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryHistory{entries: make([]HistoryEntry, capacity)}
}

func (m *MemoryHistory) Record(_ context.Context, entry HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = entry
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *MemoryHistory) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]HistoryEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}

// Prune drops entries created before the cutoff and keeps the rest in
// order.
func (m *MemoryHistory) Prune(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size, oldest := m.next, 0
	if m.full {
		size, oldest = len(m.entries), m.next
	}

	kept := make([]HistoryEntry, 0, size)
	for i := range size {
		e := m.entries[(oldest+i)%len(m.entries)]
		if !e.CreatedAt.Before(before) {
			kept = append(kept, e)
		}
	}

	clear(m.entries)
	copy(m.entries, kept)
	m.next = len(kept) % len(m.entries)
	m.full = len(kept) == len(m.entries)
	return int64(size - len(kept)), nil
}
