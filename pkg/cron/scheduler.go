// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"

	incomerepo "github.com/FACorreiaa/income-tracker/internal/domain/income/repository"
	waitlistrepo "github.com/FACorreiaa/income-tracker/internal/domain/waitlist/repository"
)

var (
	recordsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "income_records_total",
		Help: "Number of income records across all users.",
	})
	sourcesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "income_sources_total",
		Help: "Number of income sources across all users.",
	})
	waitlistGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "waitlist_signups",
		Help: "Waitlist signups by status.",
	}, []string{"status"})
)

const refreshTimeout = time.Minute

// Scheduler manages background scheduled jobs.
type Scheduler struct {
	cron         *cron.Cron
	pool         incomerepo.DB
	waitlistRepo waitlistrepo.WaitlistRepository
	logger       *slog.Logger
}

// NewScheduler creates a job scheduler over the database pool and waitlist
// repository.
func NewScheduler(pool incomerepo.DB, waitlistRepo waitlistrepo.WaitlistRepository, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:         c,
		pool:         pool,
		waitlistRepo: waitlistRepo,
		logger:       logger,
	}
}

// Start registers the jobs and begins the schedule. Metrics refresh nightly
// at 2:00 AM.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 2 * * *", s.refreshMetrics); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started", slog.Int("jobs", len(s.cron.Entries())))

	// Populate the gauges at startup instead of waiting for the first tick.
	go s.refreshMetrics()
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers the metrics refresh outside the schedule.
func (s *Scheduler) RunNow() {
	go s.refreshMetrics()
}

func (s *Scheduler) refreshMetrics() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	var records int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM income_records`).Scan(&records); err != nil {
		s.logger.Error("failed to count income records", slog.Any("error", err))
		return
	}
	recordsGauge.Set(float64(records))

	var sources int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM income_sources`).Scan(&sources); err != nil {
		s.logger.Error("failed to count income sources", slog.Any("error", err))
		return
	}
	sourcesGauge.Set(float64(sources))

	stats, err := s.waitlistRepo.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to get waitlist stats", slog.Any("error", err))
		return
	}
	waitlistGauge.WithLabelValues("pending").Set(float64(stats.PendingCount))
	waitlistGauge.WithLabelValues("invited").Set(float64(stats.InvitedCount))
	waitlistGauge.WithLabelValues("joined").Set(float64(stats.JoinedCount))

	s.logger.Debug("metrics refreshed",
		slog.Int64("records", records),
		slog.Int64("sources", sources),
		slog.Int("waitlist_signups", stats.TotalSignups))
}
