package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/session"
	"github.com/suteetoe/tenantguard/pkg/logger"
	"github.com/suteetoe/tenantguard/prometheus"
)

// Context keys set by Auth.
const (
	ClaimsKey   = "claims"
	UserIDKey   = "user_id"
	TenantIDKey = "tenant_id"
	RoleKey     = "user_role"
)

// TokenVerifier parses a session token.
type TokenVerifier interface {
	Verify(token string) (*session.Claims, error)
}

// Auth validates the bearer session token and stores its claims in the echo
// context. A session without a tenant is refused.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Debug("Invalid session token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			if claims.Tenant() == "" {
				prometheus.RecordAuthError("missing_tenant_id")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)
			c.Set(TenantIDKey, claims.Tenant())
			c.Set(RoleKey, claims.Role)
			logger.Enrich(c, zap.String("user_id", claims.UserID), zap.String("tenant_id", claims.Tenant()))

			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by Auth, or nil.
func ClaimsFrom(c echo.Context) *session.Claims {
	claims, _ := c.Get(ClaimsKey).(*session.Claims)
	return claims
}

// RequireRole refuses callers ranked below role. It must run after Auth.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !model.Role(claims.Role).AtLeast(role) {
				prometheus.RecordAuthError("insufficient_role")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}
			return next(c)
		}
	}
}
