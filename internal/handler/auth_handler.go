package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/internal/sanitize"
	"github.com/suteetoe/tenantguard/internal/session"
	"github.com/suteetoe/tenantguard/pkg/logger"
	"github.com/suteetoe/tenantguard/prometheus"
)

// AuthHandler serves sign-in, registration and the identity broker callback.
type AuthHandler struct {
	issuer *session.Issuer
}

func NewAuthHandler(issuer *session.Issuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

type tokenResponse struct {
	Token string             `json:"token"`
	User  *session.Principal `json:"user"`
}

func (h *AuthHandler) issue(c echo.Context, status int, p *session.Principal, extra echo.Map) error {
	token, err := h.issuer.Sign(h.issuer.Seed(p))
	if err != nil {
		logger.FromEcho(c).Error("Failed to sign session", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	if extra == nil {
		return c.JSON(status, tokenResponse{Token: token, User: p})
	}
	extra["token"] = token
	extra["user"] = p
	return c.JSON(status, extra)
}

// Login exchanges email and password for a session token. Every failure
// answers the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var creds session.Credentials
	if err := c.Bind(&creds); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if email, ok := creds.Email.(string); ok {
		creds.Email = sanitize.Email(email)
	}

	principal := h.issuer.Authorize(c.Request().Context(), creds)
	if principal == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issue(c, http.StatusOK, principal, nil)
}

// Register creates a tenant with its owner and signs the owner in.
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var in session.RegisterInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	// The password is hashed, never rendered, and must reach bcrypt as typed.
	in.Name = sanitize.Text(in.Name)
	in.Email = sanitize.Email(in.Email)
	in.TenantName = sanitize.Text(in.TenantName)
	in.Subdomain = sanitize.Text(in.Subdomain)
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	reg, err := h.issuer.Register(c.Request().Context(), in)
	switch {
	case errors.Is(err, session.ErrEmailTaken), errors.Is(err, session.ErrSubdomainTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email or subdomain already in use"})
	case errors.Is(err, session.ErrInvalidSubdomain), errors.Is(err, session.ErrWeakPassword):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": errMessage(err)})
	case err != nil:
		log.Error("Registration failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	return h.issue(c, http.StatusCreated, reg.Principal, echo.Map{"tenant": reg.Tenant})
}

// PasswordReset accepts a reset request. The answer never reveals whether the
// email is registered.
func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := sanitize.Bind(c, &req); err != nil {
		return err
	}
	logger.FromEcho(c).Debug("Password reset requested")
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the account exists, a reset link has been sent"})
}

type oauthSignInRequest struct {
	Provider string          `json:"provider" validate:"required"`
	Profile  session.Profile `json:"profile" validate:"required"`
}

// OAuthSignIn is called by the identity broker with a verified provider
// profile. It resolves or provisions the user and returns a session.
func (h *AuthHandler) OAuthSignIn(c echo.Context) error {
	var req oauthSignInRequest
	if err := sanitize.Bind(c, &req); err != nil {
		return err
	}

	principal, err := h.issuer.AuthorizeWithOAuth(c.Request().Context(), req.Provider, req.Profile)
	if err != nil {
		kind := session.Kind(err)
		prometheus.RecordAuthError(kind)
		if kind == "internal" {
			logger.FromEcho(c).Error("OAuth sign-in failed", zap.String("provider", req.Provider), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign-in failed"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issue(c, http.StatusOK, principal, nil)
}

func errMessage(err error) string {
	return strings.TrimPrefix(err.Error(), "session: ")
}
