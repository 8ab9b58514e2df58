// internal/app/upcoming.go
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"

	"github.com/shopspring/decimal"
)

// UpcomingOccurrence is a projected, not yet written ledger entry.
type UpcomingOccurrence struct {
	RuleID      string
	Origin      ledger.OriginType
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
	// Overdue marks dates on or before today that the next run will write.
	Overdue bool
}

// ListUpcoming reads schedules only; it never writes.
func (s *BatchService) ListUpcoming(ctx context.Context, ownerID string, daysAhead int) ([]UpcomingOccurrence, error) {
	if daysAhead < 0 {
		return nil, fmt.Errorf("days ahead must not be negative, got %d", daysAhead)
	}
	today := recurrence.DateOf(s.now())
	horizon := today.AddDate(0, 0, daysAhead)

	rules, err := s.schedules.ListRules(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurrence rules: %w", err)
	}
	var upcoming []UpcomingOccurrence
	for _, r := range rules {
		if !r.IsActive() || r.Validate() != nil {
			continue
		}
		for _, d := range r.Schedule().DueDates(r.LastProcessedDate, horizon) {
			upcoming = append(upcoming, UpcomingOccurrence{
				RuleID:      r.ID,
				Origin:      ledger.OriginRecurring,
				Kind:        r.Kind,
				Amount:      r.Amount,
				Category:    r.Category,
				Description: r.EntryDescription(),
				Date:        d,
				Overdue:     !d.After(today),
			})
		}
	}

	savings, err := s.schedules.ListActiveSavings(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings instruments: %w", err)
	}
	for _, sv := range savings {
		if !sv.DeductsAutomatically() || sv.Validate() != nil {
			continue
		}
		for _, d := range sv.Schedule().DueDates(sv.LastProcessedDate, horizon) {
			upcoming = append(upcoming, UpcomingOccurrence{
				RuleID:      sv.ID,
				Origin:      ledger.OriginSavings,
				Kind:        ledger.KindExpense,
				Amount:      sv.Amount,
				Category:    sv.EntryCategory(),
				Description: sv.EntryDescription(),
				Date:        d,
				Overdue:     !d.After(today),
			})
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Date.Before(upcoming[j].Date)
	})
	return upcoming, nil
}
