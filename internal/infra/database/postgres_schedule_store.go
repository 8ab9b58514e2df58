package database

import (
	"context"
	"database/sql"
	"fmt"

	"recurring_ledger/internal/domain/recurrence"
)

type PostgresScheduleStore struct {
	db *sql.DB
}

func NewPostgresScheduleStore(db *sql.DB) *PostgresScheduleStore {
	return &PostgresScheduleStore{db: db}
}

const ruleColumns = `id, owner_id, kind, amount, category, description,
                   payment_method, payment_method_id, payment_method_name,
                   frequency, start_date, end_date, status,
                   last_processed_date, next_due_date, created_at, updated_at`

func (r *PostgresScheduleStore) ListRules(ctx context.Context, ownerID string) ([]*recurrence.Rule, error) {
	query := `SELECT ` + ruleColumns + `
               FROM recurring_rules WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		if isPermissionDenied(err) {
			return nil, fmt.Errorf("error listing recurring rules: %w", recurrence.ErrUnauthorized)
		}
		return nil, fmt.Errorf("error listing recurring rules: %w", err)
	}
	defer rows.Close()

	rules := make([]*recurrence.Rule, 0)
	for rows.Next() {
		rule := &recurrence.Rule{}
		if err := rows.Scan(
			&rule.ID, &rule.OwnerID, &rule.Kind, &rule.Amount, &rule.Category, &rule.Description,
			&rule.PaymentMethod, &rule.PaymentMethodID, &rule.PaymentMethodName,
			&rule.Frequency, &rule.StartDate, &rule.EndDate, &rule.Status,
			&rule.LastProcessedDate, &rule.NextDueDate, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning recurring rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring rules: %w", err)
	}
	return rules, nil
}

const savingsColumns = `id, owner_id, name, amount, category, frequency, start_date, maturity_date,
                   status, auto_deduct, opening_value, accumulated_value,
                   last_processed_date, next_due_date, created_at, updated_at`

func (r *PostgresScheduleStore) ListActiveSavings(ctx context.Context, ownerID string) ([]*recurrence.SavingsRule, error) {
	query := `SELECT ` + savingsColumns + `
               FROM savings_instruments WHERE owner_id = $1 AND status = 'active' ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		if isPermissionDenied(err) {
			return nil, fmt.Errorf("error listing savings instruments: %w", recurrence.ErrUnauthorized)
		}
		return nil, fmt.Errorf("error listing savings instruments: %w", err)
	}
	defer rows.Close()

	savings := make([]*recurrence.SavingsRule, 0)
	for rows.Next() {
		s := &recurrence.SavingsRule{}
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Name, &s.Amount, &s.Category, &s.Frequency, &s.StartDate, &s.MaturityDate,
			&s.Status, &s.AutoDeduct, &s.OpeningValue, &s.AccumulatedValue,
			&s.LastProcessedDate, &s.NextDueDate, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning savings instrument: %w", err)
		}
		savings = append(savings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating savings instruments: %w", err)
	}
	return savings, nil
}

// UpdateRule never moves the stored watermark backwards.
func (r *PostgresScheduleStore) UpdateRule(ctx context.Context, id string, progress recurrence.RuleProgress) error {
	query := `UPDATE recurring_rules
               SET last_processed_date = GREATEST(COALESCE(last_processed_date, $1), $1),
                   next_due_date = $2, updated_at = NOW()
               WHERE id = $3
               RETURNING updated_at`
	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, progress.LastProcessedDate, progress.NextDueDate, id).Scan(&updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return recurrence.ErrRuleNotFound
		}
		if isPermissionDenied(err) {
			return fmt.Errorf("error updating recurring rule: %w", recurrence.ErrUnauthorized)
		}
		return fmt.Errorf("error updating recurring rule: %w", err)
	}
	return nil
}

// UpdateSavings keeps the stored watermark and next-due date when progress carries no watermark.
// The accumulated and opening values only ever grow.
func (r *PostgresScheduleStore) UpdateSavings(ctx context.Context, id string, progress recurrence.SavingsProgress) error {
	query := `UPDATE savings_instruments
               SET last_processed_date = CASE WHEN $1::date IS NULL THEN last_processed_date
                                              ELSE GREATEST(COALESCE(last_processed_date, $1), $1) END,
                   next_due_date = CASE WHEN $1::date IS NULL THEN next_due_date ELSE $2 END,
                   accumulated_value = GREATEST(accumulated_value, $3),
                   opening_value = GREATEST(opening_value, $4), updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query,
		progress.LastProcessedDate, progress.NextDueDate, progress.AccumulatedValue, progress.OpeningValue, id,
	).Scan(&updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return recurrence.ErrSavingsNotFound
		}
		if isPermissionDenied(err) {
			return fmt.Errorf("error updating savings instrument: %w", recurrence.ErrUnauthorized)
		}
		return fmt.Errorf("error updating savings instrument: %w", err)
	}
	return nil
}
