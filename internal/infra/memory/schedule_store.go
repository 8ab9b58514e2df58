package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"recurring_ledger/internal/domain/recurrence"

	"github.com/shopspring/decimal"
)

// ScheduleStore implements recurrence.ScheduleStore in memory.
// List methods return copies so callers cannot mutate stored state. Updates apply the
// same never-backwards guards as the Postgres store.
type ScheduleStore struct {
	mu      sync.RWMutex
	rules   []*recurrence.Rule
	savings []*recurrence.SavingsRule
}

func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{}
}

// AddRule stores a copy of r.
func (s *ScheduleStore) AddRule(r recurrence.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &r)
}

// AddSavings stores a copy of sv.
func (s *ScheduleStore) AddSavings(sv recurrence.SavingsRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savings = append(s.savings, &sv)
}

func (s *ScheduleStore) ListRules(ctx context.Context, ownerID string) ([]*recurrence.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*recurrence.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.OwnerID == ownerID {
			val := *r
			out = append(out, &val)
		}
	}
	return out, nil
}

func (s *ScheduleStore) ListActiveSavings(ctx context.Context, ownerID string) ([]*recurrence.SavingsRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*recurrence.SavingsRule, 0, len(s.savings))
	for _, sv := range s.savings {
		if sv.OwnerID == ownerID && sv.Status == recurrence.StatusActive {
			val := *sv
			out = append(out, &val)
		}
	}
	return out, nil
}

func (s *ScheduleStore) UpdateRule(ctx context.Context, id string, progress recurrence.RuleProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.ID == id {
			r.LastProcessedDate = laterOf(r.LastProcessedDate, progress.LastProcessedDate)
			r.NextDueDate = progress.NextDueDate
			return nil
		}
	}
	return recurrence.ErrRuleNotFound
}

func (s *ScheduleStore) UpdateSavings(ctx context.Context, id string, progress recurrence.SavingsProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sv := range s.savings {
		if sv.ID == id {
			if progress.LastProcessedDate.Valid {
				sv.LastProcessedDate = laterOf(sv.LastProcessedDate, progress.LastProcessedDate.Time)
				sv.NextDueDate = progress.NextDueDate
			}
			sv.AccumulatedValue = decimal.Max(sv.AccumulatedValue, progress.AccumulatedValue)
			sv.OpeningValue = decimal.Max(sv.OpeningValue, progress.OpeningValue)
			return nil
		}
	}
	return recurrence.ErrSavingsNotFound
}

// laterOf mirrors GREATEST(COALESCE(stored, t), t): the watermark never moves back.
func laterOf(stored sql.NullTime, t time.Time) sql.NullTime {
	if stored.Valid && stored.Time.After(t) {
		return stored
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Rule returns a copy of the stored rule with the given id.
func (s *ScheduleStore) Rule(id string) (recurrence.Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.ID == id {
			return *r, true
		}
	}
	return recurrence.Rule{}, false
}

// Savings returns a copy of the stored savings instrument with the given id.
func (s *ScheduleStore) Savings(id string) (recurrence.SavingsRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sv := range s.savings {
		if sv.ID == id {
			return *sv, true
		}
	}
	return recurrence.SavingsRule{}, false
}
