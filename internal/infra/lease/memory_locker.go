package lease

import (
	"context"
	"sync"
	"time"

	"recurring_ledger/internal/domain/runmarker"

	"github.com/google/uuid"
)

// MemoryLocker implements runmarker.Locker for a single process.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]memoryHold
	now    func() time.Time
}

type memoryHold struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]memoryHold), now: time.Now}
}

func (l *MemoryLocker) TryAcquire(ctx context.Context, ownerID string, ttl time.Duration) (runmarker.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if hold, ok := l.leases[ownerID]; ok && now.Before(hold.expires) {
		return nil, runmarker.ErrLeaseHeld
	}
	hold := memoryHold{token: uuid.NewString(), expires: now.Add(ttl)}
	l.leases[ownerID] = hold
	return &memoryLease{locker: l, ownerID: ownerID, token: hold.token}, nil
}

type memoryLease struct {
	locker  *MemoryLocker
	ownerID string
	token   string
}

func (l *memoryLease) Release(ctx context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	if hold, ok := l.locker.leases[l.ownerID]; ok && hold.token == l.token {
		delete(l.locker.leases, l.ownerID)
	}
	return nil
}
