// internal/domain/recurrence/savings.go
package recurrence

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SavingsRule is a savings instrument that deducts a fixed amount on every occurrence
// and tracks the total deducted so far.
type SavingsRule struct {
	ID                string
	OwnerID           string
	Name              string
	Amount            decimal.Decimal
	Category          string
	Frequency         Frequency
	StartDate         time.Time
	MaturityDate      sql.NullTime
	Status            Status
	AutoDeduct        bool
	OpeningValue      decimal.Decimal // balance entered by the user, not produced by deductions
	AccumulatedValue  decimal.Decimal
	LastProcessedDate sql.NullTime
	NextDueDate       sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s *SavingsRule) Schedule() Schedule {
	return Schedule{Start: s.StartDate, Frequency: s.Frequency, End: s.MaturityDate}
}

// DeductsAutomatically is true when the engine should materialize occurrences for s.
func (s *SavingsRule) DeductsAutomatically() bool {
	return s.Status == StatusActive && s.AutoDeduct && s.Frequency.Recurring()
}

func (s *SavingsRule) Validate() error {
	if !s.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrMalformedRule, s.Amount)
	}
	return s.Schedule().validate()
}

// EntryDescription is the description written on generated deductions.
func (s *SavingsRule) EntryDescription() string {
	if s.Name != "" {
		return "Savings deposit: " + s.Name
	}
	return "Savings deposit"
}

// EntryCategory falls back to "Savings" when the instrument has no category.
func (s *SavingsRule) EntryCategory() string {
	if s.Category != "" {
		return s.Category
	}
	return "Savings"
}

// SavingsProgress is the watermark and accumulator update written for a savings instrument.
// An invalid LastProcessedDate leaves the stored watermark and next-due date untouched.
// Stores never lower the watermark, the opening value or the accumulated value.
type SavingsProgress struct {
	LastProcessedDate sql.NullTime
	NextDueDate       sql.NullTime
	OpeningValue      decimal.Decimal
	AccumulatedValue  decimal.Decimal
}
