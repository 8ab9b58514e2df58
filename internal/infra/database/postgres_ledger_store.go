package database

import (
	"context"
	"database/sql"
	"fmt"

	"recurring_ledger/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

func (r *PostgresLedgerStore) CreateEntry(ctx context.Context, kind ledger.Kind, e *ledger.Entry) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("invalid ledger kind %q", kind)
	}
	query := `INSERT INTO ledger_entries (owner_id, kind, amount, category, entry_date, description,
                   payment_method, payment_method_id, payment_method_name,
                   generated, origin_rule_id, origin_type, occurrence_date)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
               RETURNING id, created_at`

	var originID, originType sql.NullString
	var occurrence sql.NullTime
	if e.Generated {
		originID = sql.NullString{String: e.OriginRuleID, Valid: e.OriginRuleID != ""}
		originType = sql.NullString{String: string(e.OriginType), Valid: e.OriginType != ""}
		occurrence = sql.NullTime{Time: e.OccurrenceDate, Valid: !e.OccurrenceDate.IsZero()}
	}

	err := r.db.QueryRowContext(ctx, query,
		e.OwnerID, kind, e.Amount, e.Category, e.Date, e.Description,
		e.PaymentMethod, e.PaymentMethodID, e.PaymentMethodName,
		e.Generated, originID, originType, occurrence,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if code, constraint := pqCode(err); code == pqUniqueViolation && constraint == occurrenceConstraint {
			return "", ledger.ErrDuplicateOccurrence
		}
		if isPermissionDenied(err) {
			return "", fmt.Errorf("error creating %s entry: %w", kind, ledger.ErrUnauthorized)
		}
		return "", fmt.Errorf("error creating %s entry: %w", kind, err)
	}
	e.Kind = kind
	return e.ID, nil
}

func (r *PostgresLedgerStore) UpdateEntry(ctx context.Context, id string, patch ledger.EntryPatch) error {
	query := `UPDATE ledger_entries
               SET amount = COALESCE($1, amount),
                   category = COALESCE($2, category),
                   entry_date = COALESCE($3, entry_date),
                   description = COALESCE($4, description)
               WHERE id = $5`

	var amount decimal.NullDecimal
	if patch.Amount != nil {
		amount = decimal.NullDecimal{Decimal: *patch.Amount, Valid: true}
	}
	var category, description sql.NullString
	if patch.Category != nil {
		category = sql.NullString{String: *patch.Category, Valid: true}
	}
	if patch.Description != nil {
		description = sql.NullString{String: *patch.Description, Valid: true}
	}
	var date sql.NullTime
	if patch.Date != nil {
		date = sql.NullTime{Time: *patch.Date, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, amount, category, date, description, id)
	if err != nil {
		if isPermissionDenied(err) {
			return fmt.Errorf("error updating ledger entry: %w", ledger.ErrUnauthorized)
		}
		return fmt.Errorf("error updating ledger entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading update result: %w", err)
	}
	if n == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

func (r *PostgresLedgerStore) SumByOrigin(ctx context.Context, originRuleID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE generated AND origin_rule_id = $1`
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, originRuleID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("error summing entries for origin %s: %w", originRuleID, err)
	}
	return sum, nil
}
