// internal/domain/runmarker/store.go
package runmarker

import (
	"context"
	"time"
)

// Store persists when the last full batch ran for an owner.
// Only the most recent value matters.
type Store interface {
	// Get returns the marker and whether one exists.
	Get(ctx context.Context, ownerID string) (time.Time, bool, error)
	Set(ctx context.Context, ownerID string, at time.Time) error
	// Clear removes the marker so the next gating check runs a full pass.
	Clear(ctx context.Context, ownerID string) error
}
