// internal/app/gating.go
package app

import (
	"context"
	"time"

	"recurring_ledger/internal/domain/recurrence"
	"recurring_ledger/internal/domain/runmarker"

	"github.com/sirupsen/logrus"
)

// Clock returns the current time. Tests replace it to pin "today".
type Clock func() time.Time

// Gate decides whether a batch run is worth doing right now.
type Gate struct {
	markers   runmarker.Store
	schedules recurrence.ScheduleStore
	now       Clock
	logger    *logrus.Entry
}

func NewGate(markers runmarker.Store, schedules recurrence.ScheduleStore, now Clock, logger *logrus.Entry) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{
		markers:   markers,
		schedules: schedules,
		now:       now,
		logger:    logger.WithField("component", "gate"),
	}
}

// ShouldRunFullPass is true when the owner has never run, last ran on an earlier day,
// or has an active rule with occurrences that are already due. It never writes.
// Any error while inspecting state answers true so catch-up is never silently skipped.
func (g *Gate) ShouldRunFullPass(ctx context.Context, ownerID string) bool {
	log := g.logger.WithField("owner_id", ownerID)
	now := g.now()

	last, ok, err := g.markers.Get(ctx, ownerID)
	if err != nil {
		log.WithError(err).Warn("Could not read run marker, assuming a run is needed")
		return true
	}
	if !ok {
		log.Debug("No run marker, full pass needed")
		return true
	}
	if !recurrence.SameDay(now, last) {
		log.WithField("last_run", last.Format(time.RFC3339)).Debug("Last run was on another day, full pass needed")
		return true
	}

	pending, err := g.hasPending(ctx, ownerID, now)
	if err != nil {
		log.WithError(err).Warn("Could not inspect schedules, assuming a run is needed")
		return true
	}
	if pending {
		log.Debug("Pending occurrences found since today's run")
	}
	return pending
}

func (g *Gate) hasPending(ctx context.Context, ownerID string, now time.Time) (bool, error) {
	rules, err := g.schedules.ListRules(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, r := range rules {
		if r.IsActive() && len(r.Schedule().DueDates(r.LastProcessedDate, now)) > 0 {
			return true, nil
		}
	}

	savings, err := g.schedules.ListActiveSavings(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, s := range savings {
		if s.DeductsAutomatically() && len(s.Schedule().DueDates(s.LastProcessedDate, now)) > 0 {
			return true, nil
		}
	}
	return false, nil
}
