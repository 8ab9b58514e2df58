// internal/domain/ledger/entry.go
package ledger

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the ledger side an entry is booked on.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// OriginType says which kind of schedule produced a generated entry.
type OriginType string

const (
	OriginRecurring OriginType = "recurring"
	OriginSavings   OriginType = "savings"
)

// Entry is a single expense or income record.
// Generated entries carry the originating rule and the occurrence date they materialize;
// the pair (OriginRuleID, OccurrenceDate) identifies one applied occurrence.
type Entry struct {
	ID                string
	OwnerID           string
	Kind              Kind
	Amount            decimal.Decimal
	Category          string
	Date              time.Time
	Description       string
	PaymentMethod     sql.NullString
	PaymentMethodID   sql.NullString
	PaymentMethodName sql.NullString
	Generated         bool
	OriginRuleID      string
	OriginType        OriginType
	OccurrenceDate    time.Time
	CreatedAt         time.Time
}

// EntryPatch carries the fields an UpdateEntry call may change. Nil fields are left untouched.
type EntryPatch struct {
	Amount      *decimal.Decimal
	Category    *string
	Date        *time.Time
	Description *string
}
