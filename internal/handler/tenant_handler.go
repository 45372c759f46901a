package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/internal/middleware"
	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/repository"
	"github.com/suteetoe/tenantguard/internal/sanitize"
	"github.com/suteetoe/tenantguard/pkg/logger"
)

// TeamStore is the tenant confined user store.
type TeamStore interface {
	ListTeam(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id, name, image string) error
}

// TenantStore loads tenants.
type TenantStore interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
}

// TenantHandler serves the caller's tenant, team and profile. Every store
// call uses the request context, which carries the session tenant.
type TenantHandler struct {
	team    TeamStore
	tenants TenantStore
}

func NewTenantHandler(team TeamStore, tenants TenantStore) *TenantHandler {
	return &TenantHandler{team: team, tenants: tenants}
}

// GetTenant returns the caller's tenant.
func (h *TenantHandler) GetTenant(c echo.Context) error {
	tenantID, _ := c.Get(middleware.TenantIDKey).(string)
	tenant, err := h.tenants.FindByID(c.Request().Context(), tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	if err != nil {
		logger.FromEcho(c).Error("Failed to load tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, tenant)
}

// ListTeam returns the users of the caller's tenant.
func (h *TenantHandler) ListTeam(c echo.Context) error {
	users, err := h.team.ListTeam(c.Request().Context())
	if err != nil {
		logger.FromEcho(c).Error("Failed to list team", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type profileRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Image string `json:"image" validate:"omitempty,max=2048"`
}

// UpdateProfile changes the caller's display name and image.
func (h *TenantHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := sanitize.Bind(c, &req); err != nil {
		return err
	}
	req.Image = sanitize.URL(req.Image)

	userID, _ := c.Get(middleware.UserIDKey).(string)
	err := h.team.UpdateProfile(c.Request().Context(), userID, req.Name, req.Image)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		logger.FromEcho(c).Error("Failed to update profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"name": req.Name, "image": req.Image})
}
