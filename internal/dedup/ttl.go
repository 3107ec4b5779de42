package dedup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arbscan/arbscan/internal/logger"
)

// TTLStore remembers admitted identifiers for a retention window. Entries
// older than the window are re-admitted (with a refreshed timestamp) and
// removed by a periodic sweep.
type TTLStore struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration

	now func() time.Time
}

// NewTTLStore creates a TTLStore with the given retention window.
func NewTTLStore(retention time.Duration) *TTLStore {
	return &TTLStore{
		seen:      make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// Admit implements Store.
func (s *TTLStore) Admit(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	last, ok := s.seen[id]
	if ok && now.Sub(last) <= s.retention {
		logger.Debug("duplicate id=%s age=%v (skip)", id, now.Sub(last))
		return false
	}
	if ok {
		logger.Info("id expired, admitting again: %s", id)
	}
	s.seen[id] = now
	return true
}

// Size implements Store.
func (s *TTLStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Sweep removes entries older than the retention window and returns the
// number removed.
func (s *TTLStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	removed := 0
	for id, ts := range s.seen {
		if ts.Before(cutoff) {
			delete(s.seen, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on a fixed period until ctx is cancelled. A sweep
// failure is logged and never terminates the schedule.
func (s *TTLStore) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepSafe()
		}
	}
}

func (s *TTLStore) sweepSafe() {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("dedup sweep failed: %v", r)
		}
	}()

	before := s.Size()
	removed := s.Sweep()
	if removed > 0 {
		logger.Info("dedup sweep: %d -> %d", before, before-removed)
	}
}
