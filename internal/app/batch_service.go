// internal/app/batch_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recurring_ledger/internal/domain/recurrence"
	"recurring_ledger/internal/domain/runmarker"

	"github.com/sirupsen/logrus"
)

// ErrBatchAlreadyRunning is returned when another run holds the owner's lease.
var ErrBatchAlreadyRunning = errors.New("a batch run is already in progress for this owner")

// DefaultLeaseTTL bounds how long a crashed run can block the next one. A run is cut off
// when its lease expires, so this also caps run time; it is longer than the scheduler's
// per-run timeout.
const DefaultLeaseTTL = 10 * time.Minute

// RecurringService is the entry point used by the scheduler and the bot.
type RecurringService interface {
	// RunBatch processes every due occurrence for the owner. Unless force is set the
	// gating check may skip the run.
	RunBatch(ctx context.Context, ownerID string, force bool) (*BatchResult, error)
	// ResetRunMarker forgets the last run so the next RunBatch does a full pass.
	ResetRunMarker(ctx context.Context, ownerID string) error
	// ListUpcoming projects occurrences not yet written, up to daysAhead days from today.
	ListUpcoming(ctx context.Context, ownerID string, daysAhead int) ([]UpcomingOccurrence, error)
}

// BatchService runs recurring rules and savings deductions for an owner.
type BatchService struct {
	schedules recurrence.ScheduleStore
	markers   runmarker.Store
	locker    runmarker.Locker
	gate      *Gate
	rules     *RuleProcessor
	savings   *SavingsProcessor
	leaseTTL  time.Duration
	now       Clock
	logger    *logrus.Entry
}

func NewBatchService(
	schedules recurrence.ScheduleStore,
	markers runmarker.Store,
	locker runmarker.Locker,
	gate *Gate,
	rules *RuleProcessor,
	savings *SavingsProcessor,
	leaseTTL time.Duration,
	now Clock,
	logger *logrus.Entry,
) *BatchService {
	if now == nil {
		now = time.Now
	}
	if leaseTTL <= 0 {
		leaseTTL = DefaultLeaseTTL
	}
	return &BatchService{
		schedules: schedules,
		markers:   markers,
		locker:    locker,
		gate:      gate,
		rules:     rules,
		savings:   savings,
		leaseTTL:  leaseTTL,
		now:       now,
		logger:    logger.WithField("component", "batch_service"),
	}
}

// RunBatch processes rules and savings instruments one after another. A failing rule does
// not stop the others; authorization failures abort the run and leave the marker untouched.
func (s *BatchService) RunBatch(ctx context.Context, ownerID string, force bool) (*BatchResult, error) {
	log := s.logger.WithFields(logrus.Fields{"owner_id": ownerID, "force": force})
	asOf := s.now()
	result := &BatchResult{OwnerID: ownerID, StartedAt: asOf}

	if !force && !s.gate.ShouldRunFullPass(ctx, ownerID) {
		log.Debug("Gating check says nothing to do")
		result.RunSkipped = true
		return result, nil
	}

	lease, err := s.locker.TryAcquire(ctx, ownerID, s.leaseTTL)
	if err != nil {
		if errors.Is(err, runmarker.ErrLeaseHeld) {
			log.Info("Another batch run holds the lease")
			return nil, ErrBatchAlreadyRunning
		}
		return nil, fmt.Errorf("failed to acquire batch lease: %w", err)
	}
	defer func() {
		// The run context may already be cancelled; release on a fresh one.
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("Failed to release batch lease")
		}
	}()

	// No write may happen after the lease could have passed to another run.
	runCtx, cancel := context.WithTimeout(ctx, s.leaseTTL)
	defer cancel()

	log.Info("Starting batch run")

	rules, err := s.schedules.ListRules(runCtx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurrence rules: %w", err)
	}
	for _, rule := range rules {
		r, err := s.rules.Process(runCtx, rule, asOf)
		result.add(r)
		if err != nil {
			log.WithError(err).Error("Aborting batch run")
			return result, err
		}
	}

	savings, err := s.schedules.ListActiveSavings(runCtx, ownerID)
	if err != nil {
		return result, fmt.Errorf("failed to list savings instruments: %w", err)
	}
	for _, sv := range savings {
		r, err := s.savings.Process(runCtx, sv, asOf)
		result.add(r)
		if err != nil {
			log.WithError(err).Error("Aborting batch run")
			return result, err
		}
	}

	// Entries are already written; a lost marker only means tomorrow's gate check repeats a no-op run.
	if err := s.markers.Set(runCtx, ownerID, asOf); err != nil {
		log.WithError(err).Error("Failed to write run marker")
	}

	log.WithFields(logrus.Fields{
		"rules":        len(rules),
		"savings":      len(savings),
		"created":      result.TotalCreated,
		"failed_rules": len(result.FailedRules()),
	}).Info("Batch run finished")
	return result, nil
}

func (s *BatchService) ResetRunMarker(ctx context.Context, ownerID string) error {
	if err := s.markers.Clear(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to clear run marker: %w", err)
	}
	s.logger.WithField("owner_id", ownerID).Info("Run marker cleared")
	return nil
}
