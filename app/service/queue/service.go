package queue

import (
	"log/slog"
	"sync"

	"unlockbot/app/config"
	"unlockbot/app/service/conversation"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service buffers inbound messages between the webhook and the workers.
type Service struct {
	mu     sync.RWMutex
	queue  chan conversation.Inbound
	closed bool
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Queue.Size), nil
}

func NewService(size int) *Service {
	return &Service{
		queue: make(chan conversation.Inbound, size),
	}
}

// Add enqueues msg without blocking and reports whether it was accepted.
func (s *Service) Add(msg conversation.Inbound) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.queue <- msg:
		return true
	default:
		slog.Warn("message queue is full", "user_id", msg.UserID)
		return false
	}
}

func (s *Service) Channel() <-chan conversation.Inbound {
	return s.queue
}

func (s *Service) Len() int {
	return len(s.queue)
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.queue)
	}

	return nil
}
