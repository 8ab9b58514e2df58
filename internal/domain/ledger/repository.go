// internal/domain/ledger/repository.go
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrDuplicateOccurrence is returned when an entry for the same origin rule and occurrence date already exists.
	ErrDuplicateOccurrence = errors.New("ledger entry for this occurrence already exists")
	// ErrUnauthorized is returned when the caller may not write to the owner's ledger.
	ErrUnauthorized = errors.New("not authorized for this ledger")
)

// Store is the ledger persistence contract used by the recurring engine.
type Store interface {
	// CreateEntry appends an entry of the given kind and returns its id.
	CreateEntry(ctx context.Context, kind Kind, e *Entry) (string, error)
	UpdateEntry(ctx context.Context, id string, patch EntryPatch) error
	// SumByOrigin totals the amounts of every entry generated by originRuleID.
	SumByOrigin(ctx context.Context, originRuleID string) (decimal.Decimal, error)
}
