package db

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// StatsReporter logs connection pool statistics on a fixed interval.
type StatsReporter struct {
	scheduler *gocron.Scheduler
}

// StartStatsReporter logs db.Stats() every interval, starting immediately.
func StartStatsReporter(db *sql.DB, interval time.Duration, logger *slog.Logger) (*StatsReporter, error) {
	if interval <= 0 {
		return nil, errors.New("stats interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(interval).Do(func() {
		logPoolStats(logger, db.Stats())
	}); err != nil {
		return nil, err
	}
	s.StartAsync()
	return &StatsReporter{scheduler: s}, nil
}

func (r *StatsReporter) Stop() {
	if r != nil && r.scheduler != nil {
		r.scheduler.Stop()
	}
}

func logPoolStats(logger *slog.Logger, st sql.DBStats) {
	logger.Info("db pool stats",
		"open", st.OpenConnections,
		"in_use", st.InUse,
		"idle", st.Idle,
		"wait_count", st.WaitCount,
		"wait_ms", st.WaitDuration.Milliseconds(),
		"max_idle_closed", st.MaxIdleClosed,
		"max_lifetime_closed", st.MaxLifetimeClosed,
	)
}
