// Package worker runs the periodic sweeps: ending elapsed stays, monthly
// commission aggregation, dues reminders and overdue enforcement. A redis
// lease per sweep keeps replicas from running the same sweep concurrently.
package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/application"
)

const (
	endStaysInterval    = 15 * time.Minute
	reminderInterval    = 1 * time.Hour
	enforcementInterval = 6 * time.Hour
	aggregationInterval = 12 * time.Hour

	leaseTTL      = 10 * time.Minute
	endStaysBatch = 500
)

// Sweeper owns the background sweep loops.
type Sweeper struct {
	bookings    *application.BookingService
	settlements *application.SettlementService
	redis       *redis.Client
	logger      *zap.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(
	bookings *application.BookingService,
	settlements *application.SettlementService,
	redisClient *redis.Client,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		bookings:    bookings,
		settlements: settlements,
		redis:       redisClient,
		logger:      logger,
	}
}

// Run starts every sweep loop and blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	go s.loop(ctx, "end-stays", endStaysInterval, s.endStays)
	go s.loop(ctx, "reminders", reminderInterval, s.reminders)
	go s.loop(ctx, "enforcement", enforcementInterval, s.enforce)
	go s.loop(ctx, "aggregation", aggregationInterval, s.aggregate)
	<-ctx.Done()
}

// loop fires the sweep on a fixed ticker. Each iteration takes a redis lease
// first; losing the lease means another replica is handling this tick.
func (s *Sweeper) loop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.acquireLease(ctx, name) {
				continue
			}
			if err := sweep(ctx); err != nil {
				s.logger.Error("sweep failed",
					zap.String("sweep", name),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Sweeper) acquireLease(ctx context.Context, name string) bool {
	ok, err := s.redis.SetNX(ctx, "sweep:lease:"+name, "1", leaseTTL).Result()
	if err != nil {
		// On redis trouble run anyway; every sweep is idempotent.
		s.logger.Warn("lease acquisition failed, proceeding without it",
			zap.String("sweep", name),
			zap.Error(err),
		)
		return true
	}
	return ok
}

func (s *Sweeper) endStays(ctx context.Context) error {
	ended, err := s.bookings.EndElapsedStays(ctx, time.Now().UTC(), endStaysBatch)
	if err != nil {
		return err
	}
	if ended > 0 {
		s.logger.Info("ended elapsed stays", zap.Int("count", ended))
	}
	return nil
}

func (s *Sweeper) reminders(ctx context.Context) error {
	sent, err := s.settlements.RunReminderSweep(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if sent > 0 {
		s.logger.Info("sent dues reminders", zap.Int("count", sent))
	}
	return nil
}

func (s *Sweeper) enforce(ctx context.Context) error {
	blocked, err := s.settlements.EnforceOverdue(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if blocked > 0 {
		s.logger.Info("blocked hosts with overdue dues", zap.Int("count", blocked))
	}
	return nil
}

// aggregate bills the previous calendar month. The upsert keyed on host and
// period makes repeated runs within a month harmless.
func (s *Sweeper) aggregate(ctx context.Context) error {
	period := application.PreviousMonth(time.Now().UTC())
	_, err := s.settlements.RunMonthlyAggregation(ctx, period)
	return err
}
