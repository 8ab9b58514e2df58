package lease

import (
	"context"
	"fmt"
	"time"

	"recurring_ledger/internal/domain/runmarker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisReleaseScript deletes the lease key only while it still holds our token,
// so an expired lease taken over by another run is never released by us.
// KEYS[1] = lease key
// ARGV[1] = holder token
var redisReleaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements runmarker.Locker with SET NX PX keys.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func leaseKey(ownerID string) string {
	return fmt.Sprintf("batch_lease:%s", ownerID)
}

func (l *RedisLocker) TryAcquire(ctx context.Context, ownerID string, ttl time.Duration) (runmarker.Lease, error) {
	key := leaseKey(ownerID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lease error: %w", err)
	}
	if !ok {
		return nil, runmarker.ErrLeaseHeld
	}
	return &redisLease{client: l.client, key: key, token: token}, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := redisReleaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("redis lease release error: %w", err)
	}
	return nil
}
