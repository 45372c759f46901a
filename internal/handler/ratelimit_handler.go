package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/internal/middleware"
	"github.com/suteetoe/tenantguard/internal/ratelimit"
	"github.com/suteetoe/tenantguard/pkg/logger"
)

// RateLimitHandler reports rate limit usage and gates AI requests on the
// tenant's plan quota.
type RateLimitHandler struct {
	limiter *ratelimit.Limiter
	quota   *ratelimit.Quota
	tenants TenantStore
}

func NewRateLimitHandler(limiter *ratelimit.Limiter, quota *ratelimit.Quota, tenants TenantStore) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter, quota: quota, tenants: tenants}
}

// identifierFor mirrors the key each route is limited under.
func identifierFor(c echo.Context, action ratelimit.Action) string {
	if action == ratelimit.ActionAIChat {
		return middleware.ByTenant(c)
	}
	return middleware.ByClientIP(c)
}

// Status reports the caller's usage of an action without consuming it.
func (h *RateLimitHandler) Status(c echo.Context) error {
	action := ratelimit.Action(c.Param("action"))
	usage, err := h.limiter.Status(c.Request().Context(), identifierFor(c, action), action)
	if errors.Is(err, ratelimit.ErrUnknownAction) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown action"})
	}
	if err != nil {
		logger.FromEcho(c).Error("Rate limit status failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"action":    action,
		"used":      usage.Used,
		"limit":     usage.Limit,
		"remaining": usage.Remaining,
		"degraded":  usage.Degraded,
	})
}

// ConsumeAIQuota charges one AI request to the tenant's monthly plan quota.
// The hourly ai_chat window is enforced by the route's rate limit middleware.
func (h *RateLimitHandler) ConsumeAIQuota(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := c.Get(middleware.TenantIDKey).(string)

	tenant, err := h.tenants.FindByID(ctx, tenantID)
	if err != nil {
		logger.FromEcho(c).Error("Failed to load tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	res, err := h.quota.Consume(ctx, tenant.ID, string(tenant.Plan))
	if err != nil {
		logger.FromEcho(c).Error("AI quota check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "quota unavailable"})
	}

	body := echo.Map{
		"plan":      tenant.Plan,
		"used":      res.Used,
		"limit":     res.Limit,
		"remaining": res.Remaining,
		"period":    h.limiter.Now().UTC().Format("2006-01"),
	}
	if !res.Allowed {
		body["error"] = "quota_exceeded"
		return c.JSON(http.StatusForbidden, body)
	}
	return c.JSON(http.StatusOK, body)
}

// AIQuotaUsage reports the tenant's monthly AI usage without consuming it.
func (h *RateLimitHandler) AIQuotaUsage(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, _ := c.Get(middleware.TenantIDKey).(string)

	tenant, err := h.tenants.FindByID(ctx, tenantID)
	if err != nil {
		logger.FromEcho(c).Error("Failed to load tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	res, err := h.quota.Usage(ctx, tenant.ID, string(tenant.Plan))
	if err != nil {
		logger.FromEcho(c).Error("AI quota usage failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "quota unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"plan":      tenant.Plan,
		"used":      res.Used,
		"limit":     res.Limit,
		"remaining": res.Remaining,
		"resets_at": nextMonth(h.limiter.Now()).Format(time.RFC3339),
		"degraded":  res.Degraded,
	})
}

func nextMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
