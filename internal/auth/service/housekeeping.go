package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
)

// ConsumedTokenRetention is how long consumed tokens are kept before the
// sweeper removes them.
const ConsumedTokenRetention = time.Hour

// HousekeepingService periodically deletes expired and consumed tokens so
// user_tokens does not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Clock    func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the sweeper. Non-positive intervals
// default to one hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweeper in the background until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs one cleanup pass. Each step is independent; a failure in one
// does not stop the other.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	now := nowFrom(s.Clock)

	expired, err := s.Store.Tokens().DeleteExpiredTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired tokens", slog.Any("error", err))
	}

	consumed, err := s.Store.Tokens().DeleteConsumedTokens(ctx, now.Add(-ConsumedTokenRetention))
	if err != nil {
		s.Logger.Error("failed to delete consumed tokens", slog.Any("error", err))
	}

	s.Logger.Info("housekeeping sweep completed",
		slog.Int64("expired_tokens", expired),
		slog.Int64("consumed_tokens", consumed),
	)
}
