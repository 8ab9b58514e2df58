package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recurring_ledger/internal/domain/ledger"
	"recurring_ledger/internal/domain/recurrence"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerStore implements ledger.Store in memory.
// Thread-safe via RWMutex. Generated entries are unique per (origin rule, occurrence date).
type LedgerStore struct {
	mu      sync.RWMutex
	entries map[string]*ledger.Entry
	order   []string
	applied map[string]string // occurrence key -> entry id
	now     func() time.Time
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[string]*ledger.Entry),
		applied: make(map[string]string),
		now:     time.Now,
	}
}

func occurrenceKey(ruleID string, date time.Time) string {
	return ruleID + "@" + recurrence.DateOf(date).Format(time.DateOnly)
}

func (s *LedgerStore) CreateEntry(ctx context.Context, kind ledger.Kind, e *ledger.Entry) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("invalid ledger kind %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var key string
	if e.Generated && e.OriginRuleID != "" {
		key = occurrenceKey(e.OriginRuleID, e.OccurrenceDate)
		if _, ok := s.applied[key]; ok {
			return "", ledger.ErrDuplicateOccurrence
		}
	}

	val := *e
	val.ID = uuid.NewString()
	val.Kind = kind
	val.CreatedAt = s.now()
	s.entries[val.ID] = &val
	s.order = append(s.order, val.ID)
	if key != "" {
		s.applied[key] = val.ID
	}
	e.ID = val.ID
	e.CreatedAt = val.CreatedAt
	return val.ID, nil
}

func (s *LedgerStore) UpdateEntry(ctx context.Context, id string, patch ledger.EntryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ledger.ErrEntryNotFound
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	return nil
}

func (s *LedgerStore) SumByOrigin(ctx context.Context, originRuleID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range s.entries {
		if e.Generated && e.OriginRuleID == originRuleID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// Entries returns copies of all entries in insertion order.
func (s *LedgerStore) Entries() []ledger.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.entries[id])
	}
	return out
}
