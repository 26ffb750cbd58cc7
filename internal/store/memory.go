package store

import (
	"errors"
	"sync"
	"time"

	"github.com/cuacakota/weather-sampler/internal/bulletin"
)

// ErrNotFound is returned when no bulletin matches the query.
var ErrNotFound = errors.New("no bulletin found")

// MemoryStore is a concurrency-safe in-memory bulletin history with optional
// retention limits.
type MemoryStore struct {
	mu sync.RWMutex

	// bulletins in generation order, oldest first
	bulletins []bulletin.Bulletin
	byID      map[string]int

	maxHistory int           // max number of bulletins kept (<= 0: unlimited)
	maxAge     time.Duration // max age of kept bulletins (<= 0: unlimited)
}

// NewMemoryStore creates a MemoryStore with optional limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]int),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Save appends a bulletin and enforces retention.
func (s *MemoryStore) Save(b bulletin.Bulletin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bulletins = append(s.bulletins, b)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.bulletins) > s.maxHistory {
		over := len(s.bulletins) - s.maxHistory
		s.bulletins = s.bulletins[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.bulletins); i++ {
			if !s.bulletins[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(s.bulletins) {
			s.bulletins = s.bulletins[i:]
		}
	}

	s.reindex()
}

func (s *MemoryStore) reindex() {
	s.byID = make(map[string]int, len(s.bulletins))
	for i, b := range s.bulletins {
		s.byID[b.ID] = i
	}
}

// Latest returns the most recently generated bulletin.
func (s *MemoryStore) Latest() (bulletin.Bulletin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.bulletins) == 0 {
		return bulletin.Bulletin{}, ErrNotFound
	}
	return s.bulletins[len(s.bulletins)-1], nil
}

// ByID returns the bulletin with the given ID, if still retained.
func (s *MemoryStore) ByID(id string) (bulletin.Bulletin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return bulletin.Bulletin{}, ErrNotFound
	}
	return s.bulletins[i], nil
}

// Recent returns up to n bulletins, newest first.
func (s *MemoryStore) Recent(n int) []bulletin.Bulletin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.bulletins) {
		n = len(s.bulletins)
	}
	out := make([]bulletin.Bulletin, 0, n)
	for i := len(s.bulletins) - 1; i >= len(s.bulletins)-n; i-- {
		out = append(out, s.bulletins[i])
	}
	return out
}
