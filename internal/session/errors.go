package session

import "errors"

var (
	ErrMissingCredentials     = errors.New("session: missing credentials")
	ErrInvalidCredentialsType = errors.New("session: credentials must be strings")
	ErrUserNotFound           = errors.New("session: user not found")
	ErrInvalidPassword        = errors.New("session: invalid password")
	ErrTenantDeleted          = errors.New("session: tenant deleted")
	ErrMissingTenantID        = errors.New("session: user has no tenant")
	ErrSubdomainExhausted     = errors.New("session: no free subdomain")

	ErrEmailTaken       = errors.New("session: email already registered")
	ErrSubdomainTaken   = errors.New("session: subdomain already in use")
	ErrInvalidSubdomain = errors.New("session: subdomain must be 3-63 lowercase letters, digits or dashes")
	ErrWeakPassword     = errors.New("session: password must be at least 12 characters with upper, lower, digit and symbol")
)

// Kind names an authorization failure for logs and metrics. Errors that are
// not authorization failures report "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrInvalidCredentialsType):
		return "invalid_credentials_type"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrInvalidPassword):
		return "invalid_password"
	case errors.Is(err, ErrTenantDeleted):
		return "tenant_deleted"
	case errors.Is(err, ErrMissingTenantID):
		return "missing_tenant_id"
	default:
		return "internal"
	}
}
