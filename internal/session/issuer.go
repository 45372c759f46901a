// Package session turns credentials and identity provider profiles into signed
// session claims. Every principal it issues is bound to exactly one tenant.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/repository"
	"github.com/suteetoe/tenantguard/pkg/jwtutil"
	"github.com/suteetoe/tenantguard/pkg/logger"
	"github.com/suteetoe/tenantguard/prometheus"
)

// ProviderCredentials is the provider name of the email and password flow.
const ProviderCredentials = "credentials"

const maxSubdomainAttempts = 5

// Users is the user store the issuer needs.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	LinkAccount(ctx context.Context, account *model.Account) error
}

// Tenants is the tenant store the issuer needs.
type Tenants interface {
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	ProvisionForUser(ctx context.Context, tenant *model.Tenant, user *model.User) error
	CreateWithOwner(ctx context.Context, tenant *model.Tenant, owner *model.User) error
}

// Credentials holds the login fields exactly as decoded from JSON, so a
// number or object sent in place of a string can be told apart from a
// missing field.
type Credentials struct {
	Email    any `json:"email"`
	Password any `json:"password"`
}

func (c Credentials) values() (email, password string, err error) {
	if blank(c.Email) || blank(c.Password) {
		return "", "", ErrMissingCredentials
	}
	email, ok := c.Email.(string)
	if !ok {
		return "", "", ErrInvalidCredentialsType
	}
	password, ok = c.Password.(string)
	if !ok {
		return "", "", ErrInvalidCredentialsType
	}
	return email, password, nil
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Profile is a verified identity returned by an OAuth provider.
type Profile struct {
	ProviderAccountID string `json:"providerAccountId"`
	Email             string `json:"email" validate:"required,email"`
	Name              string `json:"name"`
	Image             string `json:"image"`
}

// Principal is an authenticated user. It never carries the password hash.
type Principal struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Image    string     `json:"image,omitempty"`
	TenantID string     `json:"tenantId"`
	Role     model.Role `json:"role"`
}

func principalOf(u *model.User) *Principal {
	p := &Principal{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Image: u.Image,
		Role:  u.Role,
	}
	if u.TenantID != nil {
		p.TenantID = *u.TenantID
	}
	return p
}

// Issuer authorizes users and signs their session claims.
type Issuer struct {
	users      Users
	tenants    Tenants
	tokens     *jwtutil.JWTUtil
	production bool
	bcryptCost int
	suffix     func() string
	compare    func(hash, password []byte) error

	decoyOnce sync.Once
	decoy     []byte
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithProduction hides failure kinds from the logs.
func WithProduction(production bool) Option {
	return func(i *Issuer) { i.production = production }
}

// WithBcryptCost sets the cost used for new password hashes.
func WithBcryptCost(cost int) Option {
	return func(i *Issuer) { i.bcryptCost = cost }
}

func NewIssuer(users Users, tenants Tenants, tokens *jwtutil.JWTUtil, opts ...Option) *Issuer {
	i := &Issuer{
		users:      users,
		tenants:    tenants,
		tokens:     tokens,
		bcryptCost: 12,
		suffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		},
		compare: bcrypt.CompareHashAndPassword,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// AuthorizeWithPassword checks email and password and returns the principal.
// The password is compared before the tenant is inspected, so a caller
// without the password learns nothing about the tenant.
func (i *Issuer) AuthorizeWithPassword(ctx context.Context, creds Credentials) (*Principal, error) {
	email, password, err := creds.values()
	if err != nil {
		return nil, err
	}

	user, err := i.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		i.compareDecoy(password)
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if user.Password == nil {
		i.compareDecoy(password)
		return nil, ErrUserNotFound
	}

	if err := i.compare([]byte(*user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	if user.Tenant != nil && !user.Tenant.Active() {
		return nil, ErrTenantDeleted
	}
	if user.TenantID == nil || *user.TenantID == "" {
		return nil, ErrMissingTenantID
	}

	return principalOf(user), nil
}

// compareDecoy spends one bcrypt comparison at the configured cost so an
// unknown email takes as long as a wrong password.
func (i *Issuer) compareDecoy(password string) {
	i.decoyOnce.Do(func() {
		i.decoy, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), i.bcryptCost)
	})
	_ = i.compare(i.decoy, []byte(password))
}

// Authorize is AuthorizeWithPassword for callers that must not learn why a
// login failed. Every failure yields nil. The reason is counted, and logged
// outside production.
func (i *Issuer) Authorize(ctx context.Context, creds Credentials) *Principal {
	log := logger.FromContext(ctx)

	principal, err := i.AuthorizeWithPassword(ctx, creds)
	if err != nil {
		kind := Kind(err)
		prometheus.RecordLogin(ProviderCredentials, false)
		prometheus.RecordAuthError(kind)
		if kind == "internal" {
			log.Error("Authorization lookup failed", zap.Error(err))
		} else if !i.production {
			log.Warn("Authorization failed", zap.String("reason", kind))
		}
		return nil
	}

	prometheus.RecordLogin(ProviderCredentials, true)
	log.Info("User authorized", zap.String("user_id", principal.ID), zap.String("tenant_id", principal.TenantID))
	return principal
}

// AuthorizeWithOAuth resolves the user behind a verified provider profile,
// creating it on first sight. A user without a tenant gets a fresh FREE tenant
// and becomes its OWNER; tenant and promotion are written in one transaction.
func (i *Issuer) AuthorizeWithOAuth(ctx context.Context, provider string, profile Profile) (*Principal, error) {
	log := logger.FromContext(ctx).With(zap.String("provider", provider))

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, ErrMissingCredentials
	}

	user, err := i.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user = &model.User{
			Email: email,
			Name:  profile.Name,
			Image: profile.Image,
			Role:  model.RoleUser,
		}
		if err := i.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create oauth user: %w", err)
		}
		log.Info("OAuth user created", zap.String("user_id", user.ID))
	case err != nil:
		return nil, fmt.Errorf("find oauth user: %w", err)
	}

	if profile.ProviderAccountID != "" {
		account := &model.Account{UserID: user.ID, Provider: provider, ProviderAccountID: profile.ProviderAccountID}
		if err := i.users.LinkAccount(ctx, account); err != nil {
			return nil, err
		}
	}

	if user.TenantID == nil && provider != ProviderCredentials {
		if err := i.provision(ctx, user); err != nil {
			return nil, err
		}
		log.Info("Tenant provisioned for OAuth user",
			zap.String("user_id", user.ID),
			zap.String("tenant_id", *user.TenantID),
			zap.String("subdomain", user.Tenant.Subdomain))
	}

	if user.Tenant != nil && !user.Tenant.Active() {
		prometheus.RecordLogin(provider, false)
		return nil, ErrTenantDeleted
	}
	if user.TenantID == nil {
		prometheus.RecordLogin(provider, false)
		return nil, ErrMissingTenantID
	}

	prometheus.RecordLogin(provider, true)
	return principalOf(user), nil
}

func (i *Issuer) provision(ctx context.Context, user *model.User) error {
	name := user.Name
	if name == "" {
		name = strings.SplitN(user.Email, "@", 2)[0]
	}
	base := Subdomain(name)
	if base == "" {
		base = "workspace"
	}

	for attempt := 0; attempt < maxSubdomainAttempts; attempt++ {
		candidate := base
		if attempt > 0 || len(candidate) < 3 {
			candidate = withSuffix(base, i.suffix())
		}

		taken, err := i.tenants.SubdomainExists(ctx, candidate)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		tenant := &model.Tenant{
			Name:        name,
			CompanyName: name,
			Subdomain:   candidate,
			Plan:        model.PlanFree,
		}
		err = i.tenants.ProvisionForUser(ctx, tenant, user)
		if errors.Is(err, repository.ErrSubdomainTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("provision tenant: %w", err)
		}
		prometheus.RecordTenantProvisioned("oauth")
		return nil
	}
	return ErrSubdomainExhausted
}
