package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
)

const defaultUnpinInterval = time.Second

// UnpinScheduler removes notice pins once their window has passed.
// Pending unpins live in the PinRepo, so scheduling never blocks the caller.
type UnpinScheduler struct {
	pins     repo.PinRepo
	platform repo.PlatformRepo
	logger   *zap.Logger
	now      func() time.Time

	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewUnpinScheduler creates a new unpin scheduler
func NewUnpinScheduler(pins repo.PinRepo, platform repo.PlatformRepo, interval time.Duration, logger *zap.Logger) *UnpinScheduler {
	if interval <= 0 {
		interval = defaultUnpinInterval
	}
	return &UnpinScheduler{
		pins:     pins,
		platform: platform,
		logger:   logger.Named("unpin"),
		now:      time.Now,
		interval: interval,
	}
}

// Schedule records that ref must be unpinned after d
func (s *UnpinScheduler) Schedule(ctx context.Context, ref domain.MessageRef, d time.Duration) error {
	return s.pins.Add(ctx, &domain.PendingUnpin{Ref: ref, UnpinAt: s.now().Add(d)})
}

// Start starts the unpin loop. Overdue entries left by a previous run are handled on the first tick.
func (s *UnpinScheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("started", zap.Duration("interval", s.interval))
}

// Stop stops the scheduler
func (s *UnpinScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("stopped")
}

func (s *UnpinScheduler) loop() {
	defer s.wg.Done()

	s.tick(s.ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(s.ctx)
		}
	}
}

// tick unpins everything that is due. Failures are logged and the entry is dropped.
func (s *UnpinScheduler) tick(ctx context.Context) {
	due, err := s.pins.Due(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to list pending unpins", zap.Error(err))
		return
	}

	for _, p := range due {
		err := s.platform.Unpin(ctx, p.Ref)
		switch {
		case err == nil:
			unpinCount.WithLabelValues("ok").Inc()
		case errors.Is(err, repo.ErrNotFound):
			// Notice or channel already gone
			unpinCount.WithLabelValues("gone").Inc()
		default:
			unpinCount.WithLabelValues("error").Inc()
			s.logger.Warn("failed to unpin notice",
				zap.String("channel_id", p.Ref.ChannelID),
				zap.String("message_id", p.Ref.MessageID),
				zap.Error(err))
		}

		if err := s.pins.Remove(ctx, p.Ref); err != nil {
			s.logger.Error("failed to drop pending unpin", zap.String("message_id", p.Ref.MessageID), zap.Error(err))
		}
	}
}
