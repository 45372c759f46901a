package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenantguard/internal/model"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:       "Ana",
		Email:      "Ana@Acme.test",
		Password:   goodPassword,
		TenantName: "Acme",
		Subdomain:  "acme",
	}
}

func TestRegisterCreatesTenantAndOwner(t *testing.T) {
	store := newFakeStore()
	issuer := newTestIssuer(store)

	reg, err := issuer.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, model.PlanFree, reg.Tenant.Plan)
	assert.Equal(t, "acme", reg.Tenant.Subdomain)
	assert.Equal(t, model.RoleOwner, reg.Principal.Role)
	assert.Equal(t, reg.Tenant.ID, reg.Principal.TenantID)
	assert.Equal(t, "ana@acme.test", reg.Principal.Email)

	owner := store.users["ana@acme.test"]
	require.NotNil(t, owner.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*owner.Password), []byte(goodPassword)))

	p, err := issuer.AuthorizeWithPassword(context.Background(), Credentials{Email: "ana@acme.test", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, reg.Principal.ID, p.ID)
}

func TestRegisterRejections(t *testing.T) {
	store := newFakeStore()
	store.seedUser(t, "taken@acme.test", strptr(goodPassword), &model.Tenant{Subdomain: "taken"}, model.RoleOwner)
	issuer := newTestIssuer(store)

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{"email taken", func(in *RegisterInput) { in.Email = "taken@acme.test" }, ErrEmailTaken},
		{"subdomain taken", func(in *RegisterInput) { in.Subdomain = "taken" }, ErrSubdomainTaken},
		{"subdomain with spaces", func(in *RegisterInput) { in.Subdomain = "my company" }, ErrInvalidSubdomain},
		{"subdomain too short", func(in *RegisterInput) { in.Subdomain = "ab" }, ErrInvalidSubdomain},
		{"password without symbol", func(in *RegisterInput) { in.Password = "Abcdefghijk1" }, ErrWeakPassword},
		{"short password", func(in *RegisterInput) { in.Password = "Ab1!" }, ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validRegistration()
			tc.mutate(&in)
			_, err := issuer.Register(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
