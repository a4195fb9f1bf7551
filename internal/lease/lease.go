// Package lease provides a Redis-backed cycle lease so that only one
// process runs the polling pipeline at a time when several replicas of
// the server are deployed.
package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/recaplab/recap-api/internal/config"
)

// Lease is the coordination point the scheduler acquires before each cycle.
type Lease interface {
	// Acquire attempts to take the lease. It returns false without error
	// when another holder currently owns it.
	Acquire(ctx context.Context) (bool, error)

	// Release gives the lease up early. Only the current holder's release
	// has any effect; an expired or stolen lease is left alone.
	Release(ctx context.Context) error
}

// releaseScript deletes the lease key only when the stored token matches,
// so a holder that outlived its TTL cannot release a successor's lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements Lease with SET NX PX and a per-holder token.
type RedisLease struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLease builds a lease client from config. The TTL must exceed the
// cycle timeout so the lease cannot lapse mid-cycle.
func NewRedisLease(cfg config.RedisConfig, logger *slog.Logger) *RedisLease {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisLease{
		client: client,
		key:    "recap:pipeline:lease",
		token:  uuid.NewString(),
		ttl:    cfg.LeaseTTL,
		logger: logger.With(slog.String("component", "redis_lease")),
	}
}

// Acquire takes the lease if it is free. The lease expires on its own after
// the TTL, so a crashed holder never blocks the pipeline permanently.
func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring pipeline lease: %w", err)
	}
	if !ok {
		l.logger.DebugContext(ctx, "pipeline lease held elsewhere", "key", l.key)
	}
	return ok, nil
}

// Release drops the lease if this process still holds it.
func (l *RedisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("releasing pipeline lease: %w", err)
	}
	return nil
}

// Close shuts down the underlying Redis client.
func (l *RedisLease) Close() error {
	return l.client.Close()
}

var _ Lease = (*RedisLease)(nil)
