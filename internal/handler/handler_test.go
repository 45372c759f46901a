package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/suteetoe/tenantguard/internal/middleware"
	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/repository"
	"github.com/suteetoe/tenantguard/internal/sanitize"
	"github.com/suteetoe/tenantguard/internal/session"
	"github.com/suteetoe/tenantguard/internal/tenantscope"
	"github.com/suteetoe/tenantguard/pkg/jwtutil"
)

// memStore backs the session issuer and the tenant handler in tests. Team
// reads honour the tenant carried by the context the way the scope plugin
// does.
type memStore struct {
	users   map[string]*model.User
	tenants map[string]*model.Tenant
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*model.User{}, tenants: map[string]*model.Tenant{}}
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) Create(_ context.Context, user *model.User) error {
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.NewString()
	s.users[user.Email] = user
	return nil
}

func (s *memStore) LinkAccount(context.Context, *model.Account) error { return nil }

func (s *memStore) SubdomainExists(_ context.Context, subdomain string) (bool, error) {
	for _, t := range s.tenants {
		if t.Subdomain == subdomain {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ProvisionForUser(_ context.Context, tenant *model.Tenant, user *model.User) error {
	tenant.ID = uuid.NewString()
	s.tenants[tenant.ID] = tenant
	user.TenantID, user.Role, user.Tenant = &tenant.ID, model.RoleOwner, tenant
	return nil
}

func (s *memStore) CreateWithOwner(ctx context.Context, tenant *model.Tenant, owner *model.User) error {
	tenant.ID = uuid.NewString()
	s.tenants[tenant.ID] = tenant
	owner.TenantID, owner.Role, owner.Tenant = &tenant.ID, model.RoleOwner, tenant
	return s.Create(ctx, owner)
}

func (s *memStore) FindByID(_ context.Context, id string) (*model.Tenant, error) {
	if t, ok := s.tenants[id]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListTeam(ctx context.Context) ([]model.User, error) {
	tenantID, ok := tenantscope.TenantFrom(ctx)
	if !ok {
		return nil, repository.ErrNoTenant
	}
	var out []model.User
	for _, u := range s.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *memStore) UpdateProfile(ctx context.Context, id, name, image string) error {
	tenantID, _ := tenantscope.TenantFrom(ctx)
	for _, u := range s.users {
		if u.ID == id && u.TenantID != nil && *u.TenantID == tenantID {
			u.Name, u.Image = name, image
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) seedTenant(subdomain string, plan model.Plan) *model.Tenant {
	t := &model.Tenant{Base: model.Base{ID: uuid.NewString()}, Name: subdomain, Subdomain: subdomain, Plan: plan}
	s.tenants[t.ID] = t
	return t
}

func (s *memStore) seedUser(t *testing.T, email, password string, tenant *model.Tenant, role model.Role) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)
	u := &model.User{Base: model.Base{ID: uuid.NewString()}, Email: email, Name: "Ana", Password: &hashed, Role: role, TenantID: &tenant.ID, Tenant: tenant}
	s.users[email] = u
	return u
}

func newTestIssuer(store *memStore) *session.Issuer {
	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "0123456789abcdef0123456789abcdef", Expiration: time.Hour})
	return session.NewIssuer(store, store, tokens, session.WithBcryptCost(bcrypt.MinCost))
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.IPExtractor = middleware.IPExtractor(nil)
	e.Validator = sanitize.NewValidator()
	return e
}

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	require.NoError(t, db.Use(&tenantscope.Plugin{}))
	return db
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.RemoteAddr = "203.0.113.7:5000"
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, issuer *session.Issuer, u *model.User) string {
	t.Helper()
	token, err := issuer.Sign(issuer.Seed(&session.Principal{ID: u.ID, Email: u.Email, Name: u.Name, TenantID: *u.TenantID, Role: u.Role}))
	require.NoError(t, err)
	return token
}
