// internal/domain/recurrence/rule.go
package recurrence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"recurring_ledger/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

// ErrMalformedRule marks schedules whose stored data cannot be processed.
var ErrMalformedRule = errors.New("malformed recurrence rule")

// Status is the user-controlled lifecycle of a rule.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusInactive Status = "inactive"
)

// Schedule is the date part shared by recurring rules and savings instruments.
type Schedule struct {
	Start     time.Time
	Frequency Frequency
	End       sql.NullTime
}

func (s Schedule) end() *time.Time {
	if !s.End.Valid {
		return nil
	}
	return &s.End.Time
}

// DueDates returns the occurrences after the watermark that are due as of asOf.
func (s Schedule) DueDates(watermark sql.NullTime, asOf time.Time) []time.Time {
	var last *time.Time
	if watermark.Valid {
		last = &watermark.Time
	}
	return DueDates(s.Start, s.Frequency, last, s.end(), asOf)
}

// NextDue returns the occurrence following watermark, or the start date when nothing
// has been processed. Invalid when the schedule has run past its end.
func (s Schedule) NextDue(watermark sql.NullTime) sql.NullTime {
	if !watermark.Valid {
		start := DateOf(s.Start)
		if e := s.end(); e != nil && start.After(civilIn(*e, start.Location())) {
			return sql.NullTime{}
		}
		return sql.NullTime{Time: start, Valid: true}
	}
	next, ok := NextAfter(s.Start, s.Frequency, watermark.Time, s.end())
	return sql.NullTime{Time: next, Valid: ok}
}

func (s Schedule) validate() error {
	if !s.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrMalformedRule, s.Frequency)
	}
	if s.Start.IsZero() {
		return fmt.Errorf("%w: missing start date", ErrMalformedRule)
	}
	if s.End.Valid && civilIn(s.End.Time, time.UTC).Before(civilIn(s.Start, time.UTC)) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrMalformedRule,
			s.End.Time.Format(time.DateOnly), s.Start.Format(time.DateOnly))
	}
	return nil
}

// Rule is a recurring expense or income template.
type Rule struct {
	ID                string
	OwnerID           string
	Kind              ledger.Kind
	Amount            decimal.Decimal
	Category          string
	Description       string
	PaymentMethod     sql.NullString
	PaymentMethodID   sql.NullString
	PaymentMethodName sql.NullString
	Frequency         Frequency
	StartDate         time.Time
	EndDate           sql.NullTime
	Status            Status
	LastProcessedDate sql.NullTime // watermark
	NextDueDate       sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r *Rule) Schedule() Schedule {
	return Schedule{Start: r.StartDate, Frequency: r.Frequency, End: r.EndDate}
}

// IsActive is false for paused and inactive rules.
func (r *Rule) IsActive() bool {
	return r.Status == StatusActive
}

// Validate checks the fields the engine depends on.
func (r *Rule) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedRule, r.Kind)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrMalformedRule, r.Amount)
	}
	return r.Schedule().validate()
}

// EntryDescription is the description written on generated entries.
func (r *Rule) EntryDescription() string {
	if r.Description != "" {
		return r.Description
	}
	return "Recurring " + r.Category
}

// RuleProgress is the watermark update written after a rule is processed.
type RuleProgress struct {
	LastProcessedDate time.Time
	NextDueDate       sql.NullTime
}
