package dedup

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// CooldownStore is the anti-spam variant: admission is gated purely by
// "now - last seen < cooldown", and the store self-bounds by evicting the
// least-recently-touched identifier once capacity is exceeded. Every Admit
// call, including a rejected duplicate, counts as a touch.
type CooldownStore struct {
	mu       sync.Mutex
	cooldown time.Duration
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently touched

	now func() time.Time
}

type cooldownEntry struct {
	id       string
	lastSeen time.Time
}

// NewCooldownStore creates a CooldownStore with the given cooldown window
// and maximum entry count.
func NewCooldownStore(cooldown time.Duration, capacity int) *CooldownStore {
	if capacity < 1 {
		capacity = 1
	}
	return &CooldownStore{
		cooldown: cooldown,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Admit implements Store.
func (s *CooldownStore) Admit(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if elem, ok := s.entries[id]; ok {
		s.order.MoveToFront(elem)
		entry := elem.Value.(*cooldownEntry)
		if now.Sub(entry.lastSeen) < s.cooldown {
			return false
		}
		entry.lastSeen = now
		return true
	}

	s.entries[id] = s.order.PushFront(&cooldownEntry{id: id, lastSeen: now})
	s.evictOverCapacity()
	return true
}

// Size implements Store.
func (s *CooldownStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *CooldownStore) evictOverCapacity() {
	for len(s.entries) > s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			return
		}
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*cooldownEntry).id)
	}
}
