// internal/domain/recurrence/repository.go
package recurrence

import (
	"context"
	"errors"
)

var (
	ErrRuleNotFound    = errors.New("recurrence rule not found")
	ErrSavingsNotFound = errors.New("savings instrument not found")
	// ErrUnauthorized is returned when the caller may not read or write the owner's schedules.
	ErrUnauthorized = errors.New("not authorized for these schedules")
)

// ScheduleStore lists recurrence definitions and persists their processing progress.
type ScheduleStore interface {
	// ListRules returns every rule of the owner regardless of status, oldest first.
	ListRules(ctx context.Context, ownerID string) ([]*Rule, error)
	// ListActiveSavings returns the owner's active savings instruments, oldest first.
	ListActiveSavings(ctx context.Context, ownerID string) ([]*SavingsRule, error)
	UpdateRule(ctx context.Context, id string, progress RuleProgress) error
	UpdateSavings(ctx context.Context, id string, progress SavingsProgress) error
}
