package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/internal/ratelimit"
	"github.com/suteetoe/tenantguard/pkg/logger"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// KeyFunc picks the identifier a request is counted under.
type KeyFunc func(c echo.Context) string

// ByClientIP counts requests per client address.
func ByClientIP(c echo.Context) string {
	return ClientIP(c)
}

// ByTenant counts requests per session tenant, falling back to the client
// address before Auth has run.
func ByTenant(c echo.Context) string {
	if tenantID, ok := c.Get(TenantIDKey).(string); ok && tenantID != "" {
		return "tenant:" + tenantID
	}
	return ClientIP(c)
}

// RateLimit admits requests within the action's sliding window budget and
// answers 429 with Retry-After otherwise.
func RateLimit(limiter *ratelimit.Limiter, action ratelimit.Action, key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := limiter.Check(c.Request().Context(), key(c), action)
			if err != nil {
				logger.FromEcho(c).Error("Rate limit check failed", zap.String("action", string(action)), zap.Error(err))
				return echo.ErrInternalServerError
			}

			SetRateLimitHeaders(c, res)
			if res.Allowed {
				return next(c)
			}

			retryAfter := res.RetryAfter(limiter.Now())
			c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(int(retryAfter/time.Second)))
			logger.FromEcho(c).Info("Rate limit exceeded", zap.String("action", string(action)))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":    "rate limit exceeded",
				"reset_at": res.ResetAt.UTC().Format(time.RFC3339),
			})
		}
	}
}

// SetRateLimitHeaders writes the limit headers for res.
func SetRateLimitHeaders(c echo.Context, res ratelimit.Result) {
	h := c.Response().Header()
	h.Set(HeaderRateLimitLimit, strconv.Itoa(res.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
	h.Set(HeaderRateLimitReset, strconv.FormatInt(res.ResetAt.Unix(), 10))
}
