package dedup

import (
	"context"
	"sync"
	"time"
)

const pruneInterval = time.Minute

// Memory keeps update ids in process memory. Suitable for a single instance.
type Memory struct {
	ttl       time.Duration
	now       func() time.Time
	mu        sync.Mutex
	seen      map[int64]time.Time
	lastPrune time.Time
}

// NewMemory creates an in-memory Deduplicator whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[int64]time.Time),
	}
}

// Seen implements Deduplicator.
func (m *Memory) Seen(_ context.Context, updateID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastPrune) >= pruneInterval {
		m.prune(now)
	}

	if expires, ok := m.seen[updateID]; ok && now.Before(expires) {
		return true, nil
	}
	m.seen[updateID] = now.Add(m.ttl)
	return false, nil
}

// Len returns the number of remembered ids, including expired ones not yet pruned.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// Close releases the remembered ids.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = make(map[int64]time.Time)
	return nil
}

func (m *Memory) prune(now time.Time) {
	for id, expires := range m.seen {
		if !now.Before(expires) {
			delete(m.seen, id)
		}
	}
	m.lastPrune = now
}
