// Package maintenance runs scheduled housekeeping jobs alongside the API
// server. The only job today is the daily streak sweep.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/tkdojang/dojang-api/internal/store"
)

// StreakSweeper zeroes lapsed study streaks once a day. Profile rows record
// streaks lazily: domain logic resets a broken streak only when the learner
// next studies, so without the sweep a learner who stopped three weeks ago
// would still read a live streak.
type StreakSweeper struct {
	profiles  store.ProfileStore
	scheduler *gocron.Scheduler
	hourUTC   int
	logger    *slog.Logger
	timeFunc  func() time.Time // Injectable for testing
}

// NewStreakSweeper creates a sweeper that runs daily at the given UTC hour.
func NewStreakSweeper(profiles store.ProfileStore, hourUTC int, logger *slog.Logger) *StreakSweeper {
	if profiles == nil {
		panic("profiles cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StreakSweeper{
		profiles:  profiles,
		scheduler: gocron.NewScheduler(time.UTC),
		hourUTC:   hourUTC,
		logger:    logger.With(slog.String("component", "streak_sweeper")),
		timeFunc:  time.Now,
	}
}

// Start registers the daily job and begins running the scheduler in the
// background.
func (s *StreakSweeper) Start() error {
	at := fmt.Sprintf("%02d:00", s.hourUTC)
	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.run); err != nil {
		return fmt.Errorf("failed to schedule streak sweep: %w", err)
	}
	s.scheduler.StartAsync()

	s.logger.Info("streak sweep scheduled", slog.String("at_utc", at))
	return nil
}

// Stop halts the scheduler. A sweep already in flight finishes.
func (s *StreakSweeper) Stop() {
	s.scheduler.Stop()
}

func (s *StreakSweeper) run() {
	if _, err := s.Sweep(context.Background()); err != nil {
		s.logger.Error("streak sweep failed", slog.String("error", err.Error()))
	}
}

// Sweep lapses every streak whose last activity is too old to continue and
// returns the number of profiles touched. Exported so operators can trigger
// a sweep outside the schedule.
func (s *StreakSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := lapseCutoff(s.timeFunc().UTC())

	lapsed, err := s.profiles.LapseStreaks(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to lapse streaks: %w", err)
	}

	if lapsed > 0 {
		s.logger.Info("lapsed study streaks",
			slog.Int64("count", lapsed),
			slog.Time("cutoff", cutoff))
	}
	return lapsed, nil
}

// lapseCutoff returns the start of yesterday (UTC). Activity at or after the
// cutoff can still extend the streak today, so only profiles last active
// strictly before it hold broken streaks.
func lapseCutoff(now time.Time) time.Time {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return startOfToday.Add(-24 * time.Hour)
}
