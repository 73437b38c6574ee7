package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nebioudaniel/family-academy-api/pkg/config"
)

type scheduledPromoter interface {
	PromoteDueScheduled(ctx context.Context, now time.Time) (int64, error)
}

// PublisherService periodically flips scheduled courses whose publish time
// has passed to published. It is off unless explicitly enabled: by default
// scheduled courses stay hidden until their owner publishes them.
type PublisherService struct {
	repo     scheduledPromoter
	cache    *CacheService
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPublisherService constructs a PublisherService.
func NewPublisherService(repo scheduledPromoter, cache *CacheService, cfg config.PublisherConfig, logger *zap.Logger) *PublisherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &PublisherService{
		repo:     repo,
		cache:    cache,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the background sweep loop.
func (s *PublisherService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.logger.Info("publisher sweep started", zap.Duration("interval", s.interval))
}

// Stop halts the sweep loop and waits for the current pass to finish.
func (s *PublisherService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("publisher sweep stopped")
}

// Sweep runs one promotion pass and returns how many courses went live.
func (s *PublisherService) Sweep(ctx context.Context) (int64, error) {
	promoted, err := s.repo.PromoteDueScheduled(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if promoted > 0 {
		s.logger.Info("promoted scheduled courses", zap.Int64("count", promoted))
		s.cache.Invalidate(ctx, catalogListKeyPrefix+"*")
		s.cache.Invalidate(ctx, catalogCourseKey+"*")
		s.cache.Invalidate(ctx, dashboardKeyPrefix+"*")
	}
	return promoted, nil
}

func (s *PublisherService) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("publisher sweep failed", zap.Error(err))
			}
		}
	}
}
