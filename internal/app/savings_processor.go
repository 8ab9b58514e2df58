// internal/app/savings_processor.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SavingsProcessor books the periodic deductions of auto-deduct savings instruments.
//
// Every deduction is an expense entry tagged with the instrument id and occurrence date.
// Those entries are the record of applied occurrences: the accumulated value written back
// to the instrument is always its opening value plus the ledger total for the instrument,
// so a failure between the two writes is repaired by the next run.
type SavingsProcessor struct {
	ledger    ledger.Store
	schedules recurrence.ScheduleStore
	policy    WatermarkPolicy
	logger    *logrus.Entry
}

func NewSavingsProcessor(ls ledger.Store, ss recurrence.ScheduleStore, policy WatermarkPolicy, logger *logrus.Entry) *SavingsProcessor {
	return &SavingsProcessor{
		ledger:    ls,
		schedules: ss,
		policy:    policy,
		logger:    logger.WithField("component", "savings_processor"),
	}
}

// Process deducts every due occurrence of s as of asOf.
func (p *SavingsProcessor) Process(ctx context.Context, s *recurrence.SavingsRule, asOf time.Time) (RuleResult, error) {
	result := RuleResult{RuleID: s.ID, Origin: ledger.OriginSavings}
	log := p.logger.WithFields(logrus.Fields{"savings_id": s.ID, "owner_id": s.OwnerID})

	if !s.DeductsAutomatically() {
		log.Debug("Savings instrument does not auto-deduct, skipping")
		result.Skipped = true
		return result, nil
	}
	if err := s.Validate(); err != nil {
		log.WithError(err).Warn("Skipping malformed savings instrument")
		result.Errors = append(result.Errors, err)
		return result, nil
	}

	due := s.Schedule().DueDates(s.LastProcessedDate, asOf)
	if len(due) == 0 {
		return result, nil
	}
	log = log.WithField("due_count", len(due))
	log.Info("Processing due savings deductions")

	if err := p.ensureOpening(ctx, s); err != nil {
		if isAuthError(err) {
			return result, fmt.Errorf("recording opening value of savings %s: %w", s.ID, err)
		}
		log.WithError(err).Error("Failed to record opening value, no deductions made")
		result.Errors = append(result.Errors, fmt.Errorf("recording opening value: %w", err))
		result.PendingDates = due
		return result, nil
	}

	outcome, err := walkDueDates(ctx, due, p.policy, func(ctx context.Context, date time.Time) (*CreatedEntry, error) {
		entry := entryFromSavings(s, date)
		id, err := expensePoster{}.post(ctx, p.ledger, entry)
		if err != nil {
			log.WithError(err).WithField("date", date.Format(time.DateOnly)).Error("Failed to create savings deduction")
			return nil, err
		}
		created := &CreatedEntry{
			EntryID:     id,
			RuleID:      s.ID,
			Origin:      ledger.OriginSavings,
			Kind:        ledger.KindExpense,
			Amount:      entry.Amount,
			Category:    entry.Category,
			Date:        date,
			Description: entry.Description,
		}

		// The entry is written; a failed accumulator sync is reported but the occurrence counts as applied.
		if err := p.syncAccumulated(ctx, s, sql.NullTime{}, sql.NullTime{}); err != nil {
			if isAuthError(err) {
				return created, err
			}
			log.WithError(err).Warn("Failed to update accumulated value after deduction")
			result.Errors = append(result.Errors, fmt.Errorf("accumulated value after %s: %w", date.Format(time.DateOnly), err))
		}
		return created, nil
	})
	outcome.fill(&result)
	if err != nil {
		return result, fmt.Errorf("processing savings %s: %w", s.ID, err)
	}
	if !outcome.advance {
		return result, nil
	}

	watermark := validTime(outcome.watermark)
	next := s.Schedule().NextDue(watermark)
	if err := p.syncAccumulated(ctx, s, watermark, next); err != nil {
		if isAuthError(err) {
			return result, fmt.Errorf("updating watermark of savings %s: %w", s.ID, err)
		}
		log.WithError(err).Error("Failed to advance savings watermark")
		result.Errors = append(result.Errors, fmt.Errorf("advancing watermark: %w", err))
		result.Advanced = false
		return result, nil
	}

	log.WithFields(logrus.Fields{
		"created":     result.CreatedCount(),
		"watermark":   outcome.watermark.Format(time.DateOnly),
		"accumulated": s.AccumulatedValue.String(),
	}).Info("Savings instrument processed")
	return result, nil
}

// ensureOpening stores the part of the accumulated value that no tagged ledger entry
// accounts for as the opening value, before the first deduction is written, so that
// opening value plus ledger total never falls below the stored accumulated value.
func (p *SavingsProcessor) ensureOpening(ctx context.Context, s *recurrence.SavingsRule) error {
	deducted, err := p.ledger.SumByOrigin(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("summing deductions: %w", err)
	}
	unbacked := s.AccumulatedValue.Sub(deducted)
	if !unbacked.GreaterThan(s.OpeningValue) {
		return nil
	}
	progress := recurrence.SavingsProgress{
		OpeningValue:     unbacked,
		AccumulatedValue: s.AccumulatedValue,
	}
	if err := p.schedules.UpdateSavings(ctx, s.ID, progress); err != nil {
		return err
	}
	p.logger.WithFields(logrus.Fields{
		"savings_id":    s.ID,
		"opening_value": unbacked.String(),
	}).Info("Recorded opening value of savings instrument")
	s.OpeningValue = unbacked
	return nil
}

// syncAccumulated recomputes the accumulated value from the ledger and stores it,
// together with the watermark when one is given. The value never goes down.
func (p *SavingsProcessor) syncAccumulated(ctx context.Context, s *recurrence.SavingsRule, watermark, next sql.NullTime) error {
	deducted, err := p.ledger.SumByOrigin(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("summing deductions: %w", err)
	}
	progress := recurrence.SavingsProgress{
		LastProcessedDate: watermark,
		NextDueDate:       next,
		OpeningValue:      s.OpeningValue,
		AccumulatedValue:  decimal.Max(s.AccumulatedValue, accumulated(s.OpeningValue, deducted)),
	}
	if err := p.schedules.UpdateSavings(ctx, s.ID, progress); err != nil {
		return err
	}
	s.AccumulatedValue = progress.AccumulatedValue
	if watermark.Valid {
		s.LastProcessedDate = watermark
		s.NextDueDate = next
	}
	return nil
}

func accumulated(opening, deducted decimal.Decimal) decimal.Decimal {
	return opening.Add(deducted)
}

func entryFromSavings(s *recurrence.SavingsRule, date time.Time) *ledger.Entry {
	return &ledger.Entry{
		OwnerID:        s.OwnerID,
		Kind:           ledger.KindExpense,
		Amount:         s.Amount,
		Category:       s.EntryCategory(),
		Date:           date,
		Description:    s.EntryDescription(),
		Generated:      true,
		OriginRuleID:   s.ID,
		OriginType:     ledger.OriginSavings,
		OccurrenceDate: date,
	}
}

func validTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
