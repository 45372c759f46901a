package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/repository"
	"github.com/suteetoe/tenantguard/internal/session"
	"github.com/suteetoe/tenantguard/internal/tenantscope"
	"github.com/suteetoe/tenantguard/pkg/logger"
	"github.com/suteetoe/tenantguard/prometheus"
)

// ScopeKey holds the request's *tenantscope.Scope.
const ScopeKey = "tenant_scope"

// TenantFinder loads a tenant by id.
type TenantFinder interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
}

// TenantScope binds a fresh tenant scope to each authenticated request and
// puts the tenant into the request context, so every gorm statement issued
// with c.Request().Context() is confined to it.
//
// When baseDomain is set and the request arrives on a tenant subdomain, the
// subdomain must belong to the session's tenant.
func TenantScope(db *gorm.DB, tenants TenantFinder, baseDomain string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID, _ := c.Get(TenantIDKey).(string)
			scope, err := tenantscope.New(db, tenantID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			ctx := tenantscope.WithTenant(c.Request().Context(), tenantID)

			if sub := session.SubdomainFromHost(c.Request().Host, baseDomain); sub != "" {
				tenant, err := tenants.FindByID(ctx, tenantID)
				switch {
				case errors.Is(err, repository.ErrNotFound):
					prometheus.RecordAuthError("tenant_not_found")
					return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant mismatch"})
				case err != nil:
					logger.FromEcho(c).Error("Tenant lookup failed", zap.Error(err))
					return echo.ErrInternalServerError
				case tenant.Subdomain != sub || !tenant.Active():
					prometheus.RecordAuthError("tenant_mismatch")
					return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant mismatch"})
				}
			}

			c.Set(ScopeKey, scope)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ScopeFrom returns the scope bound by TenantScope, or nil.
func ScopeFrom(c echo.Context) *tenantscope.Scope {
	scope, _ := c.Get(ScopeKey).(*tenantscope.Scope)
	return scope
}
