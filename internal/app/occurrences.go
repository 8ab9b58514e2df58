// internal/app/occurrences.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recurring_ledger/internal/domain/ledger"
)

// applyFunc writes one occurrence. A nil CreatedEntry with a nil error means the
// occurrence was already present in the ledger.
type applyFunc func(ctx context.Context, date time.Time) (*CreatedEntry, error)

// walkOutcome is what happened to a rule's due dates in one run.
type walkOutcome struct {
	created    []CreatedEntry
	duplicates int
	skipped    []time.Time
	pending    []time.Time
	errs       []error
	watermark  time.Time
	advance    bool
}

// walkDueDates applies every due date in order under the given policy and works out
// where the watermark may move. Authorization failures stop the walk and are returned;
// an entry reported alongside such a failure is still listed as created.
func walkDueDates(ctx context.Context, due []time.Time, policy WatermarkPolicy, apply applyFunc) (walkOutcome, error) {
	var out walkOutcome
	var applied int
	for i, date := range due {
		created, err := apply(ctx, date)
		switch {
		case err == nil:
			applied++
			if created != nil {
				out.created = append(out.created, *created)
			} else {
				out.duplicates++
			}
			if policy == PolicyRetryFailed {
				out.watermark, out.advance = date, true
			}
			continue
		case errors.Is(err, ledger.ErrDuplicateOccurrence):
			applied++
			out.duplicates++
			if policy == PolicyRetryFailed {
				out.watermark, out.advance = date, true
			}
			continue
		case isAuthError(err):
			// The write itself may have succeeded before a follow-up update was refused.
			if created != nil {
				out.created = append(out.created, *created)
			}
			return out, err
		}

		out.errs = append(out.errs, fmt.Errorf("occurrence %s: %w", date.Format(time.DateOnly), err))
		if policy == PolicyRetryFailed {
			out.pending = append(out.pending, due[i:]...)
			return out, nil
		}
		out.skipped = append(out.skipped, date)
	}

	if policy == PolicySkipForward && applied > 0 {
		out.watermark, out.advance = due[len(due)-1], true
	}
	if policy == PolicySkipForward && applied == 0 {
		out.pending, out.skipped = out.skipped, nil
	}
	return out, nil
}

func (o walkOutcome) fill(r *RuleResult) {
	r.Created = o.created
	r.Duplicates = o.duplicates
	r.SkippedDates = o.skipped
	r.PendingDates = o.pending
	r.Errors = append(r.Errors, o.errs...)
	r.Watermark = o.watermark
	r.Advanced = o.advance
}
