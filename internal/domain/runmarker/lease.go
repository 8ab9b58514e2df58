// internal/domain/runmarker/lease.go
package runmarker

import (
	"context"
	"errors"
	"time"
)

// ErrLeaseHeld is returned by TryAcquire when another holder owns an unexpired lease.
var ErrLeaseHeld = errors.New("batch lease is held by another run")

// Lease is a short-lived claim on an owner's batch run.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out at most one unexpired lease per owner. It never blocks waiting for a lease.
type Locker interface {
	TryAcquire(ctx context.Context, ownerID string, ttl time.Duration) (Lease, error)
}
