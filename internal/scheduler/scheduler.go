package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"condo-tracker/internal/config"
	"condo-tracker/internal/logger"
	"condo-tracker/internal/photos"
)

// Scheduler runs the nightly photo reconciliation job
type Scheduler struct {
	cron      *cron.Cron
	photos    *photos.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(photoSvc *photos.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		photos: photoSvc,
		config: cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Reconcile.DailyRunEnabled {
		logger.Info("Scheduler: daily reconciliation is disabled in configuration")
		return nil
	}

	cronSpec := parseDailyRunTime(s.config.Reconcile.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		logger.Info("Scheduler: starting nightly photo reconciliation")
		result := s.photos.PurgeOrphaned()
		if len(result.Errors) > 0 {
			logger.Warn("Scheduler: reconciliation finished with errors",
				zap.Int("errors", len(result.Errors)))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	logger.Info("Scheduler: started",
		zap.String("daily_run_time", s.config.Reconcile.DailyRunTime),
		zap.String("cron", cronSpec))

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		logger.Info("Scheduler: stopped")
	}
}

// RunNow immediately executes the reconciliation job (for manual trigger)
func (s *Scheduler) RunNow() *photos.ReconcileResult {
	logger.Info("Scheduler: manual trigger, running photo reconciliation")
	return s.photos.PurgeOrphaned()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "03:00" -> "0 3 * * *" (run at 3:00 AM every day)
func parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	logger.Warn("Scheduler: failed to parse time, using default 03:00",
		zap.String("value", timeStr))
	return "0 3 * * *"
}
