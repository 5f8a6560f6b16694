package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"unlockbot/app/config"

	"github.com/golang/groupcache/lru"
	"github.com/samber/do"
)

// Store keeps sessions in memory, bounded by an LRU cap and an idle TTL.
type Store struct {
	mu      sync.Mutex
	cache   *lru.Cache
	index   map[int64]*Session
	idleTTL time.Duration
}

func New(di *do.Injector) (*Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewStore(cfg.Session.MaxSessions, cfg.Session.IdleTTL), nil
}

func NewStore(maxSessions int, idleTTL time.Duration) *Store {
	s := &Store{
		cache:   lru.New(maxSessions),
		index:   make(map[int64]*Session),
		idleTTL: idleTTL,
	}

	s.cache.OnEvicted = func(key lru.Key, _ any) {
		delete(s.index, key.(int64))
	}

	return s
}

// GetOrCreate returns the user's session, creating an empty one on first contact.
func (s *Store) GetOrCreate(userID int64, now time.Time) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.cache.Get(userID); ok {
		sess := value.(*Session)
		sess.lastSeen = now
		return sess
	}

	sess := newSession(userID, now)
	s.cache.Add(userID, sess)
	s.index[userID] = sess

	return sess
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.Len()
}

// Sweep drops sessions not seen within the idle TTL and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []int64
	for userID, sess := range s.index {
		if now.Sub(sess.lastSeen) > s.idleTTL {
			stale = append(stale, userID)
		}
	}

	for _, userID := range stale {
		s.cache.Remove(userID)
	}

	return len(stale)
}

func (s *Store) RunSweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := s.Sweep(now); removed > 0 {
				slog.Debug("Swept idle sessions",
					"removed", removed,
					"remaining", s.Len())
			}
		}
	}
}
