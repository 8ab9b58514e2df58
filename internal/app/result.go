// internal/app/result.go
package app

import (
	"errors"
	"fmt"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"

	"github.com/shopspring/decimal"
)

// CreatedEntry describes one ledger entry written during a run, for UI feedback.
type CreatedEntry struct {
	EntryID     string
	RuleID      string
	Origin      ledger.OriginType
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Description string
}

// RuleResult is the outcome of processing one rule or savings instrument.
type RuleResult struct {
	RuleID string
	Origin ledger.OriginType
	// Skipped is set when the rule was not eligible (paused, inactive, not auto-deducting).
	Skipped bool
	Created []CreatedEntry
	// Duplicates counts due dates that already had an entry in the ledger.
	Duplicates int
	// SkippedDates were passed by the watermark without an entry (PolicySkipForward only).
	SkippedDates []time.Time
	// PendingDates are due but not yet written; the next run retries them.
	PendingDates []time.Time
	Watermark    time.Time
	Advanced     bool
	Errors       []error
}

func (r RuleResult) CreatedCount() int {
	return len(r.Created)
}

func (r RuleResult) Failed() bool {
	return len(r.Errors) > 0
}

// ErrorMessages flattens the rule's errors for display.
func (r RuleResult) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s %s: %v", r.Origin, r.RuleID, err))
	}
	return msgs
}

// BatchResult aggregates one batch run.
type BatchResult struct {
	OwnerID      string
	StartedAt    time.Time
	RunSkipped   bool
	TotalCreated int
	Created      []CreatedEntry
	RuleResults  []RuleResult
}

func (b *BatchResult) add(r RuleResult) {
	b.RuleResults = append(b.RuleResults, r)
	b.Created = append(b.Created, r.Created...)
	b.TotalCreated += r.CreatedCount()
}

// FailedRules returns the results that carry at least one error.
func (b *BatchResult) FailedRules() []RuleResult {
	var failed []RuleResult
	for _, r := range b.RuleResults {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

func (b *BatchResult) ErrorMessages() []string {
	var msgs []string
	for _, r := range b.RuleResults {
		msgs = append(msgs, r.ErrorMessages()...)
	}
	return msgs
}

// isAuthError reports errors that must abort the whole batch.
func isAuthError(err error) bool {
	return errors.Is(err, ledger.ErrUnauthorized) || errors.Is(err, recurrence.ErrUnauthorized)
}
