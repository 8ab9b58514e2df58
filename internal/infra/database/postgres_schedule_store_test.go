package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresScheduleStore_ListRules(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresScheduleStore(db)
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	watermark := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "kind", "amount", "category", "description",
		"payment_method", "payment_method_id", "payment_method_name",
		"frequency", "start_date", "end_date", "status",
		"last_processed_date", "next_due_date", "created_at", "updated_at",
	}).
		AddRow("rule-1", "owner-1", "expense", "500.00", "Rent", "Flat rent",
			"card", "pm-1", "Visa", "monthly", start, nil, "active",
			watermark, nil, now, now).
		AddRow("rule-2", "owner-1", "income", "1200.50", "Salary", "",
			nil, nil, nil, "biweekly", start, nil, "paused",
			nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM recurring_rules WHERE owner_id = $1")).
		WithArgs("owner-1").
		WillReturnRows(rows)

	rules, err := store.ListRules(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, ledger.KindExpense, rules[0].Kind)
	assert.True(t, decimal.NewFromInt(500).Equal(rules[0].Amount))
	assert.Equal(t, recurrence.FrequencyMonthly, rules[0].Frequency)
	assert.Equal(t, sql.NullString{String: "Visa", Valid: true}, rules[0].PaymentMethodName)
	assert.True(t, rules[0].LastProcessedDate.Valid)
	assert.Equal(t, watermark, rules[0].LastProcessedDate.Time)

	assert.Equal(t, recurrence.StatusPaused, rules[1].Status)
	assert.False(t, rules[1].LastProcessedDate.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScheduleStore_ListRulesPermissionDenied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM recurring_rules")).
		WillReturnError(&pq.Error{Code: pqInsufficientPrivilege})

	_, err = NewPostgresScheduleStore(db).ListRules(context.Background(), "owner-1")
	assert.ErrorIs(t, err, recurrence.ErrUnauthorized)
}

func TestPostgresScheduleStore_ListActiveSavings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "name", "amount", "category", "frequency", "start_date", "maturity_date",
		"status", "auto_deduct", "opening_value", "accumulated_value",
		"last_processed_date", "next_due_date", "created_at", "updated_at",
	}).AddRow("sv-1", "owner-1", "Recurring deposit", "1000", "Savings", "monthly", start, nil,
		"active", true, "0", "3000", start.AddDate(0, 2, 0), start.AddDate(0, 3, 0), now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM savings_instruments WHERE owner_id = $1 AND status = 'active'")).
		WithArgs("owner-1").
		WillReturnRows(rows)

	savings, err := NewPostgresScheduleStore(db).ListActiveSavings(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, savings, 1)
	assert.True(t, savings[0].AutoDeduct)
	assert.True(t, decimal.NewFromInt(3000).Equal(savings[0].AccumulatedValue))
	assert.False(t, savings[0].MaturityDate.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScheduleStore_UpdateRule(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresScheduleStore(db)
	ctx := context.Background()
	watermark := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	next := sql.NullTime{Time: watermark.AddDate(0, 1, 0), Valid: true}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE recurring_rules")).
		WithArgs(watermark, next.Time, "rule-1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	require.NoError(t, store.UpdateRule(ctx, "rule-1", recurrence.RuleProgress{LastProcessedDate: watermark, NextDueDate: next}))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE recurring_rules")).
		WithArgs(watermark, next.Time, "missing").
		WillReturnError(sql.ErrNoRows)
	err = store.UpdateRule(ctx, "missing", recurrence.RuleProgress{LastProcessedDate: watermark, NextDueDate: next})
	assert.ErrorIs(t, err, recurrence.ErrRuleNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresScheduleStore_UpdateSavings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Both values are guarded so a stale recomputation can never lower them.
	mock.ExpectQuery(`UPDATE savings_instruments(.|\n)*` +
		regexp.QuoteMeta("accumulated_value = GREATEST(accumulated_value, $3)") + `(.|\n)*` +
		regexp.QuoteMeta("opening_value = GREATEST(opening_value, $4)")).
		WithArgs(nil, nil, "2000", "500", "sv-1").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	err = NewPostgresScheduleStore(db).UpdateSavings(context.Background(), "sv-1", recurrence.SavingsProgress{
		OpeningValue:     decimal.NewFromInt(500),
		AccumulatedValue: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
