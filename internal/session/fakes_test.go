package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/repository"
	"github.com/suteetoe/tenantguard/pkg/jwtutil"
)

type fakeStore struct {
	users      map[string]*model.User
	tenants    map[string]*model.Tenant
	accounts   []*model.Account
	provisions int
	// raceSubdomain reports a unique violation for this subdomain on write
	// even though SubdomainExists said it was free.
	raceSubdomain string
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*model.User{}, tenants: map[string]*model.Tenant{}}
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) Create(_ context.Context, user *model.User) error {
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.NewString()
	s.users[user.Email] = user
	return nil
}

func (s *fakeStore) LinkAccount(_ context.Context, account *model.Account) error {
	s.accounts = append(s.accounts, account)
	return nil
}

func (s *fakeStore) SubdomainExists(_ context.Context, subdomain string) (bool, error) {
	_, ok := s.tenants[subdomain]
	return ok, nil
}

func (s *fakeStore) addTenant(tenant *model.Tenant) error {
	if _, ok := s.tenants[tenant.Subdomain]; ok || tenant.Subdomain == s.raceSubdomain {
		return repository.ErrSubdomainTaken
	}
	tenant.ID = uuid.NewString()
	s.tenants[tenant.Subdomain] = tenant
	return nil
}

func (s *fakeStore) ProvisionForUser(_ context.Context, tenant *model.Tenant, user *model.User) error {
	if err := s.addTenant(tenant); err != nil {
		return err
	}
	s.provisions++
	user.TenantID = &tenant.ID
	user.Role = model.RoleOwner
	user.Tenant = tenant
	return nil
}

func (s *fakeStore) CreateWithOwner(ctx context.Context, tenant *model.Tenant, owner *model.User) error {
	if err := s.addTenant(tenant); err != nil {
		return err
	}
	owner.TenantID = &tenant.ID
	owner.Role = model.RoleOwner
	owner.Tenant = tenant
	return s.Create(ctx, owner)
}

// seedUser stores a user with the given password (nil for OAuth only) bound
// to a tenant unless tenant is nil.
func (s *fakeStore) seedUser(t *testing.T, email string, password *string, tenant *model.Tenant, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Base: model.Base{ID: uuid.NewString()}, Email: email, Name: "Ana", Role: role}
	if password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.MinCost)
		require.NoError(t, err)
		hashed := string(hash)
		user.Password = &hashed
	}
	if tenant != nil {
		if tenant.ID == "" {
			tenant.ID = uuid.NewString()
		}
		s.tenants[tenant.Subdomain] = tenant
		user.TenantID = &tenant.ID
		user.Tenant = tenant
	}
	s.users[email] = user
	return user
}

func newTestIssuer(store *fakeStore, opts ...Option) *Issuer {
	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "0123456789abcdef0123456789abcdef", Expiration: jwtutil.DefaultExpiration})
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewIssuer(store, store, tokens, opts...)
}

func strptr(s string) *string { return &s }
