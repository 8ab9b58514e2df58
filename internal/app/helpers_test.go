package app

import (
	"context"
	"io"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"
	"recurring_ledger/internal/infra/memory"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func dates(ds []time.Time) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

// flakyLedger fails CreateEntry for chosen occurrence dates, counts calls and records
// the deadline each call ran under.
type flakyLedger struct {
	*memory.LedgerStore
	failOn    map[string]error
	creates   int
	deadlines []time.Time
}

func newFlakyLedger() *flakyLedger {
	return &flakyLedger{LedgerStore: memory.NewLedgerStore(), failOn: map[string]error{}}
}

func (f *flakyLedger) CreateEntry(ctx context.Context, kind ledger.Kind, e *ledger.Entry) (string, error) {
	f.creates++
	if dl, ok := ctx.Deadline(); ok {
		f.deadlines = append(f.deadlines, dl)
	}
	if err, ok := f.failOn[e.OccurrenceDate.Format(time.DateOnly)]; ok {
		return "", err
	}
	return f.LedgerStore.CreateEntry(ctx, kind, e)
}

// recordingSchedules counts updates and can fail list or update calls.
type recordingSchedules struct {
	*memory.ScheduleStore
	ruleUpdates       int
	savingsUpdates    int
	listErr           error
	savingsUpdateErrs []error
}

func newRecordingSchedules() *recordingSchedules {
	return &recordingSchedules{ScheduleStore: memory.NewScheduleStore()}
}

func (r *recordingSchedules) ListRules(ctx context.Context, ownerID string) ([]*recurrence.Rule, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.ScheduleStore.ListRules(ctx, ownerID)
}

func (r *recordingSchedules) UpdateRule(ctx context.Context, id string, p recurrence.RuleProgress) error {
	r.ruleUpdates++
	return r.ScheduleStore.UpdateRule(ctx, id, p)
}

func (r *recordingSchedules) UpdateSavings(ctx context.Context, id string, p recurrence.SavingsProgress) error {
	r.savingsUpdates++
	if len(r.savingsUpdateErrs) > 0 {
		err := r.savingsUpdateErrs[0]
		r.savingsUpdateErrs = r.savingsUpdateErrs[1:]
		if err != nil {
			return err
		}
	}
	return r.ScheduleStore.UpdateSavings(ctx, id, p)
}

func monthlyRent() recurrence.Rule {
	return recurrence.Rule{
		ID:                "rule-rent",
		OwnerID:           "owner-1",
		Kind:              ledger.KindExpense,
		Amount:            decimal.NewFromInt(500),
		Category:          "Rent",
		PaymentMethod:     nullString("card"),
		PaymentMethodID:   nullString("pm-1"),
		PaymentMethodName: nullString("Visa"),
		Frequency:         recurrence.FrequencyMonthly,
		StartDate:         day(2024, 1, 15),
		Status:            recurrence.StatusActive,
	}
}

func monthlyDeposit() recurrence.SavingsRule {
	return recurrence.SavingsRule{
		ID:         "savings-rd",
		OwnerID:    "owner-1",
		Name:       "Recurring deposit",
		Amount:     decimal.NewFromInt(1000),
		Frequency:  recurrence.FrequencyMonthly,
		StartDate:  day(2024, 1, 1),
		Status:     recurrence.StatusActive,
		AutoDeduct: true,
	}
}

func ptr[T any](v T) *T {
	return &v
}
