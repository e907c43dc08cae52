package feed

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PipelineClient is the subset of *redis.Client the remote provider needs:
// enough to build and execute one pipeline per batch group.
type PipelineClient interface {
	Pipeline() redis.Pipeliner
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ConnPool is the explicit pooling collaborator §9 calls for: the remote
// provider never constructs connections directly, it goes through this
// interface. This keeps the provider swappable in tests (a fake pool can
// simulate acquire-timeout failures without a real Redis).
type ConnPool interface {
	// Acquire returns a client bound by deadline, or a TransportError if a
	// connection could not be acquired within that time.
	Acquire(ctx context.Context, deadline time.Time) (PipelineClient, error)
	// Release returns a connection obtained from Acquire. RedisConnPool's
	// implementation is a no-op since go-redis pools internally, but the
	// interface keeps callers symmetric with a hand-rolled pool.
	Release(conn PipelineClient)
}

// RedisConnPool implements ConnPool directly on top of redis.Client's own
// pool (PoolSize, PoolTimeout), per SPEC_FULL §5: the spec's acquire/release
// collaborator interface is a thin wrapper, not a second pooling layer.
type RedisConnPool struct {
	client *redis.Client
}

// NewRedisConnPool wraps an already-configured *redis.Client.
func NewRedisConnPool(client *redis.Client) *RedisConnPool {
	return &RedisConnPool{client: client}
}

var _ ConnPool = (*RedisConnPool)(nil)

func (r *RedisConnPool) Acquire(ctx context.Context, deadline time.Time) (PipelineClient, error) {
	if deadline.IsZero() {
		return r.client, nil
	}
	acquireCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	// go-redis acquires a connection lazily per command from its internal
	// pool; Ping forces an acquire-and-release now so a saturated pool
	// surfaces as a TransportError here rather than inside the first
	// pipelined command.
	if err := r.client.Ping(acquireCtx).Err(); err != nil {
		return nil, TransportError("acquire redis connection", err)
	}
	return r.client, nil
}

func (r *RedisConnPool) Release(conn PipelineClient) {
	// go-redis returns connections to its pool automatically after each
	// command; nothing to release explicitly.
}
