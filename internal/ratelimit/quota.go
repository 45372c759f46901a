package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Unlimited marks a plan without a monthly cap.
const Unlimited = -1

// DefaultPlanQuotas is the monthly AI request allowance per tenant plan.
var DefaultPlanQuotas = map[string]int{
	"FREE":       10,
	"STARTER":    100,
	"PRO":        1000,
	"ENTERPRISE": Unlimited,
}

const quotaTTL = 31 * 24 * time.Hour

// consumeScript increments the month counter unless it already reached the cap.
//
// KEYS[1] month key
// ARGV cap, ttl_ms
// returns {allowed, used}
var consumeScript = redis.NewScript(`
local used = tonumber(redis.call("GET", KEYS[1]) or "0")
if used >= tonumber(ARGV[1]) then
  return {0, used}
end
used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, used}
`)

// QuotaResult is the outcome of Consume and Usage. Limit is Unlimited for
// uncapped plans.
type QuotaResult struct {
	Allowed   bool
	Used      int
	Limit     int
	Remaining int
	Degraded  bool
}

// Quota tracks monthly per-tenant AI usage against the tenant's plan.
type Quota struct {
	client *redis.Client
	quotas map[string]int
	clock  clockwork.Clock
	log    *zap.Logger
}

// NewQuota returns a Quota backed by client, which may be nil.
func NewQuota(client *redis.Client, clock clockwork.Clock, log *zap.Logger) *Quota {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Quota{client: client, quotas: DefaultPlanQuotas, clock: clock, log: log}
}

// QuotaKey returns the counter key for tenantID in the month containing t.
func QuotaKey(tenantID string, t time.Time) string {
	return fmt.Sprintf("ai:quota:%s:%s", tenantID, t.UTC().Format("2006-01"))
}

func (q *Quota) capFor(plan string) int {
	if c, ok := q.quotas[plan]; ok {
		return c
	}
	return q.quotas["FREE"]
}

// Consume records one AI request for the tenant if its plan allows it.
func (q *Quota) Consume(ctx context.Context, tenantID, plan string) (QuotaResult, error) {
	limit := q.capFor(plan)
	if limit == Unlimited {
		return QuotaResult{Allowed: true, Limit: Unlimited, Remaining: Unlimited}, nil
	}
	if q.client == nil {
		return QuotaResult{Allowed: true, Limit: limit, Remaining: limit, Degraded: true}, nil
	}

	res, err := consumeScript.Run(ctx, q.client, []string{QuotaKey(tenantID, q.clock.Now())},
		limit, quotaTTL.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		q.log.Warn("ai quota store unavailable, allowing request", zap.String("tenant_id", tenantID), zap.Error(err))
		return QuotaResult{Allowed: true, Limit: limit, Remaining: limit, Degraded: true}, nil
	}

	used := int(res[1])
	return QuotaResult{
		Allowed:   res[0] == 1,
		Used:      used,
		Limit:     limit,
		Remaining: max(limit-used, 0),
	}, nil
}

// Usage reports the tenant's usage this month without consuming.
func (q *Quota) Usage(ctx context.Context, tenantID, plan string) (QuotaResult, error) {
	limit := q.capFor(plan)
	if q.client == nil {
		return QuotaResult{Allowed: true, Limit: limit, Remaining: limit, Degraded: true}, nil
	}

	used, err := q.client.Get(ctx, QuotaKey(tenantID, q.clock.Now())).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		q.log.Warn("ai quota store unavailable, reporting empty usage", zap.String("tenant_id", tenantID), zap.Error(err))
		return QuotaResult{Allowed: true, Limit: limit, Remaining: limit, Degraded: true}, nil
	}

	if limit == Unlimited {
		return QuotaResult{Allowed: true, Used: used, Limit: Unlimited, Remaining: Unlimited}, nil
	}
	return QuotaResult{
		Allowed:   used < limit,
		Used:      used,
		Limit:     limit,
		Remaining: max(limit-used, 0),
	}, nil
}
