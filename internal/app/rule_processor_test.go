package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

var errStoreDown = errors.New("store unreachable")

func newRuleFixture(policy WatermarkPolicy, rule recurrence.Rule) (*RuleProcessor, *flakyLedger, *recordingSchedules) {
	ls := newFlakyLedger()
	ss := newRecordingSchedules()
	ss.AddRule(rule)
	return NewRuleProcessor(ls, ss, policy, testLogger()), ls, ss
}

func process(t *testing.T, p *RuleProcessor, ss *recordingSchedules, id string, asOfDay string) (RuleResult, error) {
	t.Helper()
	rule, ok := ss.Rule(id)
	require.True(t, ok)
	asOf, err := time.Parse(time.DateOnly, asOfDay)
	require.NoError(t, err)
	return p.Process(context.Background(), &rule, asOf)
}

func TestRuleProcessor_CatchUpWritesEveryDueDate(t *testing.T) {
	p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, monthlyRent())

	res, err := process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	assert.Equal(t, 4, res.CreatedCount())
	assert.Empty(t, res.Errors)

	entries := ls.Entries()
	require.Len(t, entries, 4)
	var got []string
	for _, e := range entries {
		got = append(got, e.Date.Format(time.DateOnly))
		assert.Equal(t, ledger.KindExpense, e.Kind)
		assert.True(t, e.Generated)
		assert.Equal(t, "rule-rent", e.OriginRuleID)
		assert.Equal(t, ledger.OriginRecurring, e.OriginType)
		assert.Equal(t, "Recurring Rent", e.Description)
		assert.Equal(t, nullString("Visa"), e.PaymentMethodName)
		assert.Equal(t, nullString("pm-1"), e.PaymentMethodID)
	}
	assert.Equal(t, []string{"2024-01-15", "2024-02-15", "2024-03-15", "2024-04-15"}, got)

	stored, _ := ss.Rule("rule-rent")
	require.True(t, stored.LastProcessedDate.Valid)
	assert.Equal(t, day(2024, 4, 15), stored.LastProcessedDate.Time)
	require.True(t, stored.NextDueDate.Valid)
	assert.Equal(t, day(2024, 5, 15), stored.NextDueDate.Time)
	assert.Equal(t, 1, ss.ruleUpdates)
}

func TestRuleProcessor_RerunIsNoOp(t *testing.T) {
	p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, monthlyRent())

	_, err := process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	creates, updates := ls.creates, ss.ruleUpdates

	res, err := process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	assert.Zero(t, res.CreatedCount())
	assert.Equal(t, creates, ls.creates)
	assert.Equal(t, updates, ss.ruleUpdates)
}

func TestRuleProcessor_InactiveRulesNeverWrite(t *testing.T) {
	for _, status := range []recurrence.Status{recurrence.StatusPaused, recurrence.StatusInactive} {
		t.Run(string(status), func(t *testing.T) {
			rule := monthlyRent()
			rule.StartDate = day(2020, 1, 1)
			rule.Status = status
			p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, rule)

			res, err := process(t, p, ss, "rule-rent", "2024-04-20")
			require.NoError(t, err)
			assert.True(t, res.Skipped)
			assert.Zero(t, ls.creates)
			assert.Zero(t, ss.ruleUpdates)
		})
	}
}

func TestRuleProcessor_MalformedRuleIsReportedNotWritten(t *testing.T) {
	rule := monthlyRent()
	rule.Frequency = ""
	p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, rule)

	res, err := process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], recurrence.ErrMalformedRule)
	assert.Zero(t, ls.creates)
	assert.Zero(t, ss.ruleUpdates)
}

func TestRuleProcessor_IncomeRuleBooksIncome(t *testing.T) {
	rule := monthlyRent()
	rule.Kind = ledger.KindIncome
	rule.Description = "Salary"
	p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, rule)

	_, err := process(t, p, ss, "rule-rent", "2024-02-01")
	require.NoError(t, err)
	entries := ls.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.KindIncome, entries[0].Kind)
	assert.Equal(t, "Salary", entries[0].Description)
}

func TestRuleProcessor_RetryPolicyStopsAtFirstFailure(t *testing.T) {
	p, ls, ss := newRuleFixture(PolicyRetryFailed, monthlyRent())
	ls.failOn["2024-02-15"] = errStoreDown

	res, err := process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreatedCount())
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], errStoreDown)
	assert.Equal(t, []string{"2024-02-15", "2024-03-15", "2024-04-15"}, dates(res.PendingDates))
	assert.Empty(t, res.SkippedDates)

	stored, _ := ss.Rule("rule-rent")
	assert.Equal(t, day(2024, 1, 15), stored.LastProcessedDate.Time)
	assert.Equal(t, day(2024, 2, 15), stored.NextDueDate.Time)

	// The store recovers and the next run writes the rest exactly once.
	delete(ls.failOn, "2024-02-15")
	res, err = process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CreatedCount())
	assert.Len(t, ls.Entries(), 4)
}

func TestRuleProcessor_RetryPolicyFirstDateFails(t *testing.T) {
	p, ls, ss := newRuleFixture(PolicyRetryFailed, monthlyRent())
	ls.failOn["2024-01-15"] = errStoreDown

	res, err := process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	assert.Zero(t, res.CreatedCount())
	assert.False(t, res.Advanced)
	assert.Equal(t, 1, ls.creates)
	assert.Zero(t, ss.ruleUpdates)
}

func TestRuleProcessor_SkipForwardPolicyPassesFailedDates(t *testing.T) {
	p, ls, ss := newRuleFixture(PolicySkipForward, monthlyRent())
	ls.failOn["2024-02-15"] = errStoreDown

	res, err := process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CreatedCount())
	assert.Equal(t, []string{"2024-02-15"}, dates(res.SkippedDates))
	assert.Empty(t, res.PendingDates)
	require.Len(t, res.Errors, 1)

	stored, _ := ss.Rule("rule-rent")
	assert.Equal(t, day(2024, 4, 15), stored.LastProcessedDate.Time)

	// The skipped date is never retried.
	delete(ls.failOn, "2024-02-15")
	res, err = process(t, p, ss, "rule-rent", "2024-04-20")
	require.NoError(t, err)
	assert.Zero(t, res.CreatedCount())
	assert.Len(t, ls.Entries(), 3)
}

func TestRuleProcessor_SkipForwardWithNoSuccessKeepsWatermark(t *testing.T) {
	rule := monthlyRent()
	p, ls, ss := newRuleFixture(PolicySkipForward, rule)
	ls.failOn["2024-01-15"] = errStoreDown
	ls.failOn["2024-02-15"] = errStoreDown

	res, err := process(t, p, ss, "rule-rent", "2024-02-20")
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Equal(t, []string{"2024-01-15", "2024-02-15"}, dates(res.PendingDates))
	assert.Empty(t, res.SkippedDates)
	assert.Zero(t, ss.ruleUpdates)
}

func TestRuleProcessor_ExistingOccurrenceCountsAsApplied(t *testing.T) {
	p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, monthlyRent())
	ls.failOn["2024-01-15"] = ledger.ErrDuplicateOccurrence

	res, err := process(t, p, ss, "rule-rent", "2024-02-20")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreatedCount())
	assert.Equal(t, 1, res.Duplicates)
	assert.Empty(t, res.Errors)

	stored, _ := ss.Rule("rule-rent")
	assert.Equal(t, day(2024, 2, 15), stored.LastProcessedDate.Time)
}

func TestRuleProcessor_AuthorizationErrorIsReturned(t *testing.T) {
	p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, monthlyRent())
	ls.failOn["2024-02-15"] = ledger.ErrUnauthorized

	_, err := process(t, p, ss, "rule-rent", "2024-04-20")
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	assert.Zero(t, ss.ruleUpdates)
}

func TestRuleProcessor_EndDateStopsGeneration(t *testing.T) {
	rule := monthlyRent()
	rule.EndDate = sql.NullTime{Time: day(2024, 2, 15), Valid: true}
	p, ls, ss := newRuleFixture(DefaultWatermarkPolicy, rule)

	_, err := process(t, p, ss, "rule-rent", "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, ls.Entries(), 2)

	stored, _ := ss.Rule("rule-rent")
	assert.Equal(t, day(2024, 2, 15), stored.LastProcessedDate.Time)
	assert.False(t, stored.NextDueDate.Valid)
	assert.Equal(t, recurrence.StatusActive, stored.Status)
}
