// internal/app/rule_processor.go
package app

import (
	"context"
	"fmt"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"

	"github.com/sirupsen/logrus"
)

// RuleProcessor materializes the due occurrences of recurring expense and income rules.
type RuleProcessor struct {
	ledger    ledger.Store
	schedules recurrence.ScheduleStore
	policy    WatermarkPolicy
	logger    *logrus.Entry
}

func NewRuleProcessor(ls ledger.Store, ss recurrence.ScheduleStore, policy WatermarkPolicy, logger *logrus.Entry) *RuleProcessor {
	return &RuleProcessor{
		ledger:    ls,
		schedules: ss,
		policy:    policy,
		logger:    logger.WithField("component", "rule_processor"),
	}
}

// Process writes one ledger entry per due date of rule as of asOf and then moves the
// rule's watermark. Paused, inactive and malformed rules cause no store calls.
// The returned error is non-nil only for authorization failures, which must abort the batch.
func (p *RuleProcessor) Process(ctx context.Context, rule *recurrence.Rule, asOf time.Time) (RuleResult, error) {
	result := RuleResult{RuleID: rule.ID, Origin: ledger.OriginRecurring}
	log := p.logger.WithFields(logrus.Fields{"rule_id": rule.ID, "owner_id": rule.OwnerID})

	if !rule.IsActive() {
		log.WithField("status", rule.Status).Debug("Rule not active, skipping")
		result.Skipped = true
		return result, nil
	}
	if err := rule.Validate(); err != nil {
		log.WithError(err).Warn("Skipping malformed rule")
		result.Errors = append(result.Errors, err)
		return result, nil
	}

	due := rule.Schedule().DueDates(rule.LastProcessedDate, asOf)
	if len(due) == 0 {
		return result, nil
	}
	log = log.WithField("due_count", len(due))
	log.Info("Processing due occurrences")

	post, err := posterFor(rule.Kind)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return result, nil
	}

	outcome, err := walkDueDates(ctx, due, p.policy, func(ctx context.Context, date time.Time) (*CreatedEntry, error) {
		entry := entryFromRule(rule, date)
		id, err := post.post(ctx, p.ledger, entry)
		if err != nil {
			log.WithError(err).WithField("date", date.Format(time.DateOnly)).Error("Failed to create ledger entry")
			return nil, err
		}
		return &CreatedEntry{
			EntryID:     id,
			RuleID:      rule.ID,
			Origin:      ledger.OriginRecurring,
			Kind:        post.kind(),
			Amount:      entry.Amount,
			Category:    entry.Category,
			Date:        date,
			Description: entry.Description,
		}, nil
	})
	outcome.fill(&result)
	if err != nil {
		return result, fmt.Errorf("processing rule %s: %w", rule.ID, err)
	}

	if len(result.SkippedDates) > 0 {
		log.WithField("skipped", len(result.SkippedDates)).Warn("Watermark moved past failed occurrences")
	}
	if !outcome.advance {
		return result, nil
	}

	progress := recurrence.RuleProgress{
		LastProcessedDate: outcome.watermark,
		NextDueDate:       rule.Schedule().NextDue(validTime(outcome.watermark)),
	}
	if err := p.schedules.UpdateRule(ctx, rule.ID, progress); err != nil {
		if isAuthError(err) {
			return result, fmt.Errorf("updating watermark of rule %s: %w", rule.ID, err)
		}
		log.WithError(err).Error("Failed to advance rule watermark")
		result.Errors = append(result.Errors, fmt.Errorf("advancing watermark: %w", err))
		result.Advanced = false
		return result, nil
	}

	rule.LastProcessedDate = validTime(progress.LastProcessedDate)
	rule.NextDueDate = progress.NextDueDate
	log.WithFields(logrus.Fields{
		"created":   result.CreatedCount(),
		"watermark": progress.LastProcessedDate.Format(time.DateOnly),
	}).Info("Rule processed")
	return result, nil
}

func entryFromRule(rule *recurrence.Rule, date time.Time) *ledger.Entry {
	return &ledger.Entry{
		OwnerID:           rule.OwnerID,
		Kind:              rule.Kind,
		Amount:            rule.Amount,
		Category:          rule.Category,
		Date:              date,
		Description:       rule.EntryDescription(),
		PaymentMethod:     rule.PaymentMethod,
		PaymentMethodID:   rule.PaymentMethodID,
		PaymentMethodName: rule.PaymentMethodName,
		Generated:         true,
		OriginRuleID:      rule.ID,
		OriginType:        ledger.OriginRecurring,
		OccurrenceDate:    date,
	}
}
