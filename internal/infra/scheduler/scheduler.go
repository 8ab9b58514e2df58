package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recurring_ledger/internal/app" // For RecurringService interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultRunTimeout bounds a single scheduled batch run.
const DefaultRunTimeout = 5 * time.Minute

// ResultNotifier is told about runs that created entries or failed.
type ResultNotifier interface {
	NotifyBatchResult(ctx context.Context, result *app.BatchResult, runErr error)
}

type BatchScheduler struct {
	cronEngine *cron.Cron
	service    app.RecurringService
	notifier   ResultNotifier // optional
	ownerID    string
	cronSpec   string // e.g., "5 0 * * *" (00:05 daily)
	timeout    time.Duration
	logger     *logrus.Entry
}

func NewBatchScheduler(
	service app.RecurringService,
	notifier ResultNotifier,
	ownerID string,
	cronSpec string,
	logger *logrus.Entry,
) *BatchScheduler {
	return &BatchScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		service:    service,
		notifier:   notifier,
		ownerID:    ownerID,
		cronSpec:   cronSpec,
		timeout:    DefaultRunTimeout,
		logger:     logger.WithField("component", "scheduler"),
	}
}

// Start registers the daily batch job and starts the cron engine.
func (s *BatchScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting batch scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily batch run")
		s.runJob(false)
	})
	if err != nil {
		return fmt.Errorf("could not add batch cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Batch scheduler started")
	return nil
}

// RunOnce performs a gated run immediately, the catch-up done when the process starts.
func (s *BatchScheduler) RunOnce() {
	s.logger.Info("Running startup catch-up")
	s.runJob(false)
}

func (s *BatchScheduler) runJob(force bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.service.RunBatch(ctx, s.ownerID, force)
	switch {
	case errors.Is(err, app.ErrBatchAlreadyRunning):
		s.logger.Info("Batch run already in progress, skipping this trigger")
		return
	case err != nil:
		s.logger.WithError(err).Error("Batch run failed")
	case result.RunSkipped:
		s.logger.Debug("Nothing to do for today")
		return
	default:
		s.logger.WithFields(logrus.Fields{
			"created":      result.TotalCreated,
			"failed_rules": len(result.FailedRules()),
		}).Info("Scheduled batch run finished")
	}

	if s.notifier == nil {
		return
	}
	if err != nil || result.TotalCreated > 0 || len(result.FailedRules()) > 0 {
		s.notifier.NotifyBatchResult(ctx, result, err)
	}
}

func (s *BatchScheduler) Stop() {
	s.logger.Info("Stopping batch scheduler")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Batch scheduler gracefully stopped")
}
