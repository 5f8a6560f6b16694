package engine

import (
	"context"
	"log/slog"
	"time"

	"unlockbot/app/config"
	"unlockbot/app/service/conversation"
	"unlockbot/app/service/queue"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

type MessageHandler interface {
	OnUserMessage(ctx context.Context, in conversation.Inbound)
}

// Service drains the inbound queue with a fixed pool of workers.
type Service struct {
	handler MessageHandler
	queue   *queue.Service
	workers int
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[*conversation.Service](di),
		do.MustInvoke[*queue.Service](di),
		cfg.Queue.Workers,
	), nil
}

func NewService(handler MessageHandler, queueSvc *queue.Service, workers int) *Service {
	if workers < 1 {
		workers = 1
	}

	return &Service{
		handler: handler,
		queue:   queueSvc,
		workers: workers,
	}
}

// Run blocks until ctx is done or the queue is closed.
func (s *Service) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for i := 0; i < s.workers; i++ {
		group.Go(func() error {
			s.runWorker(ctx)
			return nil
		})
	}

	return group.Wait()
}

func (s *Service) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.queue.Channel():
			if !ok {
				return
			}

			start := time.Now()
			s.handler.OnUserMessage(ctx, msg)

			slog.Info("Processed message",
				"user_id", msg.UserID,
				"has_photo", msg.HasPhoto,
				"duration", time.Since(start))
		}
	}
}
