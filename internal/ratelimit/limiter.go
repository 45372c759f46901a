// Package ratelimit implements a sliding window request limiter over redis
// sorted sets. Each (action, identifier) pair owns one key holding a member per
// admitted request, scored by its unix millisecond timestamp.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/prometheus"
)

// ErrUnknownAction is returned for an action without a configured limit.
var ErrUnknownAction = errors.New("ratelimit: unknown action")

// Action names a class of requests sharing a budget.
type Action string

const (
	ActionLogin         Action = "login"
	ActionRegister      Action = "register"
	ActionPasswordReset Action = "password_reset"
	ActionAPIGeneral    Action = "api_general"
	ActionAIChat        Action = "ai_chat"
)

// Limit is a ceiling of Max requests per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// DefaultLimits is the per-action configuration.
var DefaultLimits = map[Action]Limit{
	ActionLogin:         {Max: 5, Window: time.Minute},
	ActionRegister:      {Max: 3, Window: time.Hour},
	ActionPasswordReset: {Max: 3, Window: time.Hour},
	ActionAPIGeneral:    {Max: 100, Window: time.Minute},
	ActionAIChat:        {Max: 50, Window: time.Hour},
}

// Result is the outcome of Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the store could not be consulted and the request
	// was let through.
	Degraded bool
}

// RetryAfter is the wait until ResetAt, rounded up to whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}

// Usage is the outcome of Status.
type Usage struct {
	Used      int
	Limit     int
	Remaining int
	Degraded  bool
}

// checkScript prunes, counts and conditionally records in one round trip so
// concurrent requests near the ceiling cannot both be admitted.
//
// KEYS[1] window key
// ARGV now_ms, window_start_ms, window_ms, limit, member
// returns {allowed, count, oldest_ms}
var checkScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[4])

redis.call("ZREMRANGEBYSCORE", key, "-inf", "(" .. ARGV[2])
local count = redis.call("ZCOUNT", key, ARGV[2], ARGV[1])

if count >= limit then
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  local oldestScore = tonumber(ARGV[2])
  if oldest[2] then
    oldestScore = tonumber(oldest[2])
  end
  return {0, count, oldestScore}
end

redis.call("ZADD", key, now, ARGV[5])
redis.call("PEXPIRE", key, ARGV[3])
return {1, count, now}
`)

// Limiter checks and records requests. A Limiter without a client admits
// everything.
type Limiter struct {
	client *redis.Client
	limits map[Action]Limit
	clock  clockwork.Clock
	log    *zap.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithLogger sets the logger used for degraded mode warnings.
func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// WithLimits overrides the limit table.
func WithLimits(limits map[Action]Limit) Option {
	return func(l *Limiter) { l.limits = limits }
}

// New returns a Limiter backed by client. client may be nil.
func New(client *redis.Client, opts ...Option) *Limiter {
	l := &Limiter{
		client: client,
		limits: DefaultLimits,
		clock:  clockwork.NewRealClock(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the redis key for the pair.
func Key(action Action, identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, identifier)
}

// Now returns the limiter's clock time.
func (l *Limiter) Now() time.Time {
	return l.clock.Now()
}

// LimitFor returns the configured limit for action.
func (l *Limiter) LimitFor(action Action) (Limit, error) {
	lim, ok := l.limits[action]
	if !ok {
		return Limit{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return lim, nil
}

// Check admits or rejects one request for identifier. Rejected requests are
// not recorded. Store failures admit the request.
func (l *Limiter) Check(ctx context.Context, identifier string, action Action) (Result, error) {
	lim, err := l.LimitFor(action)
	if err != nil {
		return Result{}, err
	}

	now := l.clock.Now()
	if l.client == nil {
		return l.degraded(action, lim, now, nil), nil
	}

	nowMs := now.UnixMilli()
	windowMs := lim.Window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	start := time.Now()
	res, err := checkScript.Run(ctx, l.client, []string{Key(action, identifier)},
		nowMs, nowMs-windowMs, windowMs, lim.Max, member).Int64Slice()
	if err != nil {
		return l.degraded(action, lim, now, err), nil
	}
	if len(res) != 3 {
		return l.degraded(action, lim, now, fmt.Errorf("unexpected script reply of length %d", len(res))), nil
	}

	allowed, count, oldest := res[0] == 1, int(res[1]), res[2]
	prometheus.RecordRateLimit(string(action), allowed, time.Since(start))

	if !allowed {
		return Result{
			Allowed:   false,
			Limit:     lim.Max,
			Remaining: 0,
			ResetAt:   time.UnixMilli(oldest).Add(lim.Window),
		}, nil
	}
	return Result{
		Allowed:   true,
		Limit:     lim.Max,
		Remaining: lim.Max - count - 1,
		ResetAt:   now.Add(lim.Window),
	}, nil
}

// Status reports usage in the current window without recording anything.
func (l *Limiter) Status(ctx context.Context, identifier string, action Action) (Usage, error) {
	lim, err := l.LimitFor(action)
	if err != nil {
		return Usage{}, err
	}
	if l.client == nil {
		return Usage{Limit: lim.Max, Remaining: lim.Max, Degraded: true}, nil
	}

	now := l.clock.Now()
	nowMs := now.UnixMilli()
	count, err := l.client.ZCount(ctx, Key(action, identifier),
		strconv.FormatInt(nowMs-lim.Window.Milliseconds(), 10),
		strconv.FormatInt(nowMs, 10)).Result()
	if err != nil {
		l.log.Warn("rate limit status unavailable", zap.String("action", string(action)), zap.Error(err))
		return Usage{Limit: lim.Max, Remaining: lim.Max, Degraded: true}, nil
	}

	used := int(count)
	remaining := lim.Max - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{Used: used, Limit: lim.Max, Remaining: remaining}, nil
}

func (l *Limiter) degraded(action Action, lim Limit, now time.Time, err error) Result {
	fields := []zap.Field{zap.String("action", string(action))}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.log.Warn("rate limit store unavailable, allowing request", fields...)
	prometheus.RecordRateLimitDegraded(string(action))
	return Result{
		Allowed:   true,
		Limit:     lim.Max,
		Remaining: lim.Max,
		ResetAt:   now.Add(lim.Window),
		Degraded:  true,
	}
}
