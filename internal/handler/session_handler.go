package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/internal/middleware"
	"github.com/suteetoe/tenantguard/internal/sanitize"
	"github.com/suteetoe/tenantguard/internal/session"
	"github.com/suteetoe/tenantguard/pkg/logger"
)

// SessionHandler reads and refreshes the caller's session claims.
type SessionHandler struct {
	issuer *session.Issuer
}

func NewSessionHandler(issuer *session.Issuer) *SessionHandler {
	return &SessionHandler{issuer: issuer}
}

// Get returns the current claims.
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.ClaimsFrom(c))
}

// Refresh applies a client update to the display fields of the session and
// returns a new token. Keys outside the refreshable set are reported back.
func (h *SessionHandler) Refresh(c echo.Context) error {
	var update map[string]any
	if err := sanitize.Bind(c, &update); err != nil {
		return err
	}

	claims, rejected := h.issuer.Refresh(*middleware.ClaimsFrom(c), update)
	if len(rejected) > 0 {
		logger.FromEcho(c).Warn("Session refresh dropped keys", zap.Strings("keys", rejected))
	}

	token, err := h.issuer.Sign(claims)
	if err != nil {
		logger.FromEcho(c).Error("Failed to sign session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	if rejected == nil {
		rejected = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "rejected": rejected})
}
