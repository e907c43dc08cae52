package feed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// RemoteProvider is the production Provider implementation over a Redis
// sorted-set keyspace (§4.4). Every operation it issues to the backing
// keyspace runs through a per-instance circuit breaker and, for idempotent
// operations, a bounded retry policy (§4.8, §4.9). It never issues a
// multi-user aggregate command: every key touches exactly one user, which
// is what lets the keyspace shard transparently behind a proxy.
type RemoteProvider struct {
	pool    ConnPool
	breaker *gobreaker.CircuitBreaker[any]
	retry   RetryConfig
	debug   bool
	onDebug func(cmd string)
	// limiter caps the rate of new batch-group dispatches admitted to the
	// backing keyspace, independent of pool size (SPEC_FULL §5). Nil means
	// unbounded.
	limiter *rate.Limiter
}

// RemoteProviderOption configures optional RemoteProvider behavior.
type RemoteProviderOption func(*RemoteProvider)

// WithDebugLogging enables per-command logging of pipelined commands. It is
// not tied to any environment variable; a caller that wants it passes it
// explicitly. Event payload contents are never logged; only the command name
// and key are passed to fn.
func WithDebugLogging(fn func(cmd string)) RemoteProviderOption {
	return func(r *RemoteProvider) {
		r.debug = true
		r.onDebug = fn
	}
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg RetryConfig) RemoteProviderOption {
	return func(r *RemoteProvider) { r.retry = cfg }
}

// WithDispatchRateLimit bounds how many batch groups per second may be
// admitted to the backing keyspace, as a backpressure valve independent of
// the connection pool's own size (SPEC_FULL §5): the pool bounds concurrent
// connections, this bounds how fast new groups are let through when the
// pool is saturated.
func WithDispatchRateLimit(eventsPerSecond float64, burst int) RemoteProviderOption {
	return func(r *RemoteProvider) {
		r.limiter = rate.NewLimiter(rate.Limit(eventsPerSecond), burst)
	}
}

// NewRemoteProvider constructs a RemoteProvider over pool, guarded by a
// circuit breaker built from cbCfg. onBreakerChange may be nil.
func NewRemoteProvider(pool ConnPool, cbCfg CircuitBreakerConfig, onBreakerChange BreakerStateChangeFunc, opts ...RemoteProviderOption) *RemoteProvider {
	r := &RemoteProvider{
		pool:    pool,
		breaker: newCircuitBreaker(cbCfg, onBreakerChange),
		retry:   DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Provider = (*RemoteProvider)(nil)

func dataKey(fc FeedContext, userID string) string {
	return fmt.Sprintf("%s|%s|data|%s", fc.Namespace, fc.FeedName, userID)
}

func metaKey(fc FeedContext, userID string) string {
	return fmt.Sprintf("%s|%s|meta|%s", fc.Namespace, fc.FeedName, userID)
}

func (r *RemoteProvider) logCmd(cmd string) {
	if r.debug && r.onDebug != nil {
		r.onDebug(cmd)
	}
}

// withConn acquires a connection for the lifetime of one batch group,
// running fn once, and always releases it (even on error). If a dispatch
// rate limiter is configured, admission blocks here before the breaker and
// pool are touched at all.
func (r *RemoteProvider) withConn(ctx context.Context, fc FeedContext, fn func(client PipelineClient) error) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return TimeoutError("dispatch rate limiter: " + err.Error())
		}
	}

	_, err := executeWithBreaker(r.breaker, func() (struct{}, error) {
		client, err := r.pool.Acquire(ctx, fc.Deadline)
		if err != nil {
			return struct{}{}, err
		}
		defer r.pool.Release(client)
		return struct{}{}, fn(client)
	})
	return err
}

func (r *RemoteProvider) idempotent(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	_, err := withRetry(ctx, operation, r.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Store: add-if-absent plus an unconditional trim that keeps only the
// max_size highest scores, pipelined as one unit per user (§4.4).
func (r *RemoteProvider) Store(ctx context.Context, fc FeedContext, userIDs []string, ev Event) *Response[bool] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[bool] {
		resp := newResponse[bool](group)
		err := r.withConn(ctx, fc, func(client PipelineClient) error {
			pipe := client.Pipeline()
			addCmds := make(map[string]*redis.IntCmd, len(group))
			for _, id := range group {
				key := dataKey(fc, id)
				addCmds[id] = pipe.ZAddNX(ctx, key, redis.Z{Score: ev.At, Member: ev.Value})
				pipe.ZRemRangeByRank(ctx, key, 0, int64(-(fc.MaxSize+1)))
				r.logCmd("ZADD NX " + key)
			}
			if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
				return TransportError("store pipeline exec", err)
			}
			for _, id := range group {
				added, err := addCmds[id].Result()
				if err != nil {
					resp.setErr(id, ProviderErrorf(err, "read store result for user %q", id))
					continue
				}
				resp.set(id, added > 0)
			}
			return nil
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) Delete(ctx context.Context, fc FeedContext, userIDs []string, ev Event) *Response[bool] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[bool] {
		resp := newResponse[bool](group)
		err := r.idempotent(ctx, "delete", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				pipe := client.Pipeline()
				cmds := make(map[string]*redis.IntCmd, len(group))
				for _, id := range group {
					key := dataKey(fc, id)
					cmds[id] = pipe.ZRem(ctx, key, ev.Value)
					r.logCmd("ZREM " + key)
				}
				if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("delete pipeline exec", err)
				}
				for _, id := range group {
					removed, err := cmds[id].Result()
					if err != nil {
						resp.setErr(id, ProviderErrorf(err, "read delete result for user %q", id))
						continue
					}
					resp.set(id, removed > 0)
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

// DeleteIf fetches all entries, evaluates pred client-side, then issues one
// pipelined multi-removal per §4.4. This is best-effort and NOT atomic with
// respect to concurrent writers, as the spec mandates.
func (r *RemoteProvider) DeleteIf(ctx context.Context, fc FeedContext, userIDs []string, pred func(Event) bool) *Response[int] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[int] {
		resp := newResponse[int](group)
		err := r.idempotent(ctx, "delete_if", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				pipe := client.Pipeline()
				fetchCmds := make(map[string]*redis.ZSliceCmd, len(group))
				for _, id := range group {
					key := dataKey(fc, id)
					fetchCmds[id] = pipe.ZRevRangeWithScores(ctx, key, 0, -1)
					r.logCmd("ZREVRANGE " + key)
				}
				if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("delete_if fetch pipeline exec", err)
				}

				removePipe := client.Pipeline()
				removeCmds := make(map[string]*redis.IntCmd, len(group))
				toRemove := make(map[string][]string, len(group))
				for _, id := range group {
					zs, err := fetchCmds[id].Result()
					if err != nil {
						resp.setErr(id, ProviderErrorf(err, "read delete_if fetch for user %q", id))
						continue
					}
					var matched []string
					for _, z := range zs {
						value, _ := z.Member.(string)
						if pred(Event{Value: value, At: z.Score}) {
							matched = append(matched, value)
						}
					}
					toRemove[id] = matched
					if len(matched) > 0 {
						members := make([]interface{}, len(matched))
						for i, v := range matched {
							members[i] = v
						}
						removeCmds[id] = removePipe.ZRem(ctx, dataKey(fc, id), members...)
					}
				}
				if _, err := removePipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("delete_if remove pipeline exec", err)
				}
				for _, id := range group {
					if resp.Err(id) != nil {
						continue
					}
					resp.set(id, len(toRemove[id]))
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) Wipe(ctx context.Context, fc FeedContext, userIDs []string) *Response[bool] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[bool] {
		resp := newResponse[bool](group)
		err := r.idempotent(ctx, "wipe", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				pipe := client.Pipeline()
				existsCmds := make(map[string]*redis.IntCmd, len(group))
				for _, id := range group {
					existsCmds[id] = pipe.Exists(ctx, dataKey(fc, id), metaKey(fc, id))
				}
				if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("wipe exists pipeline exec", err)
				}

				delPipe := client.Pipeline()
				for _, id := range group {
					delPipe.Del(ctx, dataKey(fc, id), metaKey(fc, id))
					r.logCmd("DEL " + dataKey(fc, id))
				}
				if _, err := delPipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("wipe del pipeline exec", err)
				}

				for _, id := range group {
					existed, err := existsCmds[id].Result()
					if err != nil {
						resp.setErr(id, ProviderErrorf(err, "read wipe exists for user %q", id))
						continue
					}
					resp.set(id, existed > 0)
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

// Paginate issues the reverse-rank range query, then — when peek is false —
// a conditional-max watermark update pipelined on the same connection but
// not strictly atomic with the read, per §4.4. Per §4.9, paginate(peek=false)
// is never retried, since replaying it could double-advance the read
// watermark; only the read-only peek=true form is retried on transient
// transport errors.
func (r *RemoteProvider) Paginate(ctx context.Context, fc FeedContext, userIDs []string, page, perPage int, peek, withTotal bool) *Response[PageResult] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[PageResult] {
		resp := newResponse[PageResult](group)
		start := int64((page - 1) * perPage)
		stop := start + int64(perPage) - 1

		op := func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				pipe := client.Pipeline()
				rangeCmds := make(map[string]*redis.ZSliceCmd, len(group))
				cardCmds := make(map[string]*redis.IntCmd, len(group))
				for _, id := range group {
					key := dataKey(fc, id)
					rangeCmds[id] = pipe.ZRevRangeWithScores(ctx, key, start, stop)
					if withTotal {
						cardCmds[id] = pipe.ZCard(ctx, key)
					}
					r.logCmd("ZREVRANGE " + key)
				}
				if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("paginate pipeline exec", err)
				}

				for _, id := range group {
					zs, err := rangeCmds[id].Result()
					if err != nil {
						resp.setErr(id, ProviderErrorf(err, "read paginate result for user %q", id))
						continue
					}
					events := make([]Event, len(zs))
					var maxAt float64
					for i, z := range zs {
						value, _ := z.Member.(string)
						events[i] = Event{Value: value, At: z.Score}
						if i == 0 || z.Score > maxAt {
							maxAt = z.Score
						}
					}
					pr := PageResult{Events: events}
					if withTotal {
						total, err := cardCmds[id].Result()
						if err == nil {
							pr.Total = int(total)
							pr.HasTotal = true
						}
					}
					resp.set(id, pr)

					if !peek && len(events) > 0 {
						if err := r.advanceWatermark(ctx, client, fc, id, maxAt); err != nil {
							// The page itself was already captured successfully;
							// a failed watermark advance does not invalidate it,
							// matching §4.4's best-effort, idempotent update.
							r.logCmd("watermark advance failed for " + id)
						}
					}
				}
				return nil
			})
		}

		var err error
		if peek {
			err = r.idempotent(ctx, "paginate", op)
		} else {
			err = op(ctx)
		}
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) Fetch(ctx context.Context, fc FeedContext, userIDs []string) *Response[[]Event] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[[]Event] {
		resp := newResponse[[]Event](group)
		err := r.idempotent(ctx, "fetch", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				pipe := client.Pipeline()
				cmds := make(map[string]*redis.ZSliceCmd, len(group))
				for _, id := range group {
					key := dataKey(fc, id)
					cmds[id] = pipe.ZRevRangeWithScores(ctx, key, 0, -1)
					r.logCmd("ZREVRANGE " + key)
				}
				if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("fetch pipeline exec", err)
				}
				for _, id := range group {
					zs, err := cmds[id].Result()
					if err != nil {
						resp.setErr(id, ProviderErrorf(err, "read fetch result for user %q", id))
						continue
					}
					events := make([]Event, len(zs))
					for i, z := range zs {
						value, _ := z.Member.(string)
						events[i] = Event{Value: value, At: z.Score}
					}
					resp.set(id, events)
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) ResetLastRead(ctx context.Context, fc FeedContext, userIDs []string, at *float64) *Response[float64] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[float64] {
		resp := newResponse[float64](group)
		target := nowScore()
		if at != nil {
			target = *at
		}
		err := r.idempotent(ctx, "reset_last_read", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				for _, id := range group {
					newVal, err := r.advanceWatermark(ctx, client, fc, id, target)
					if err != nil {
						resp.setErr(id, err)
						continue
					}
					resp.set(id, newVal)
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) TotalCount(ctx context.Context, fc FeedContext, userIDs []string) *Response[int] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[int] {
		resp := newResponse[int](group)
		err := r.idempotent(ctx, "total_count", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				pipe := client.Pipeline()
				cmds := make(map[string]*redis.IntCmd, len(group))
				for _, id := range group {
					cmds[id] = pipe.ZCard(ctx, dataKey(fc, id))
				}
				if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("total_count pipeline exec", err)
				}
				for _, id := range group {
					v, err := cmds[id].Result()
					if err != nil {
						resp.setErr(id, ProviderErrorf(err, "read total_count for user %q", id))
						continue
					}
					resp.set(id, int(v))
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) UnreadCount(ctx context.Context, fc FeedContext, userIDs []string) *Response[int] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[int] {
		resp := newResponse[int](group)
		err := r.idempotent(ctx, "unread_count", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				lastReads := make(map[string]float64, len(group))
				for _, id := range group {
					lr, err := r.readWatermark(ctx, client, fc, id)
					if err != nil {
						resp.setErr(id, err)
						continue
					}
					lastReads[id] = lr
				}

				pipe := client.Pipeline()
				cmds := make(map[string]*redis.IntCmd, len(group))
				for _, id := range group {
					if resp.Err(id) != nil {
						continue
					}
					cmds[id] = pipe.ZCount(ctx, dataKey(fc, id), "("+strconv.FormatFloat(lastReads[id], 'f', -1, 64), "+inf")
				}
				if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
					return TransportError("unread_count pipeline exec", err)
				}
				for _, id := range group {
					if resp.Err(id) != nil {
						continue
					}
					v, err := cmds[id].Result()
					if err != nil {
						resp.setErr(id, ProviderErrorf(err, "read unread_count for user %q", id))
						continue
					}
					resp.set(id, int(v))
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) LastRead(ctx context.Context, fc FeedContext, userIDs []string) *Response[float64] {
	return dispatchGroups(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[float64] {
		resp := newResponse[float64](group)
		err := r.idempotent(ctx, "last_read", func(ctx context.Context) error {
			return r.withConn(ctx, fc, func(client PipelineClient) error {
				for _, id := range group {
					lr, err := r.readWatermark(ctx, client, fc, id)
					if err != nil {
						resp.setErr(id, err)
						continue
					}
					resp.set(id, lr)
				}
				return nil
			})
		})
		if err != nil {
			fillGroupErr(resp, group, err)
		}
		return resp
	})
}

func (r *RemoteProvider) readWatermark(ctx context.Context, client PipelineClient, fc FeedContext, userID string) (float64, error) {
	val, err := client.Get(ctx, metaKey(fc, userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, TransportError("read last_read watermark", err)
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, ProviderErrorf(err, "parse last_read watermark for user %q", userID)
	}
	return parsed, nil
}

// advanceWatermark sets meta|<user_id> to max(current, target), never
// regressing it (invariant I5), via a read-then-conditionally-write on the
// already-acquired connection. Not atomic, but idempotent and monotonic per
// §4.4, so a concurrent racer converges to a correct final state.
func (r *RemoteProvider) advanceWatermark(ctx context.Context, client PipelineClient, fc FeedContext, userID string, target float64) (float64, error) {
	current, err := r.readWatermark(ctx, client, fc, userID)
	if err != nil {
		return 0, err
	}
	if target <= current {
		return current, nil
	}
	key := metaKey(fc, userID)
	if err := client.Set(ctx, key, strconv.FormatFloat(target, 'f', -1, 64), 0).Err(); err != nil {
		return 0, TransportError("advance last_read watermark", err)
	}
	r.logCmd("SET " + key)
	return target, nil
}

func fillGroupErr[T any](resp *Response[T], group []string, err error) {
	for _, id := range group {
		if resp.Err(id) == nil {
			if _, ok := resp.Value(id); !ok {
				resp.setErr(id, err)
			}
		}
	}
}
