package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/repository"
	"github.com/suteetoe/tenantguard/pkg/logger"
	"github.com/suteetoe/tenantguard/prometheus"
)

// RegisterInput is a self-service signup creating a tenant and its owner.
type RegisterInput struct {
	Name       string `json:"name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=12"`
	TenantName string `json:"tenantName" validate:"required,min=2"`
	Subdomain  string `json:"subdomain" validate:"required,min=3,max=63"`
}

// Registration is the outcome of Register.
type Registration struct {
	Principal *Principal
	Tenant    *model.Tenant
}

// Register creates the tenant on the FREE plan and its OWNER in one
// transaction.
func (i *Issuer) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	log := logger.FromContext(ctx)

	subdomain := strings.ToLower(in.Subdomain)
	if !ValidSubdomain(subdomain) {
		return nil, ErrInvalidSubdomain
	}
	if !strongPassword(in.Password) {
		return nil, ErrWeakPassword
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := i.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	taken, err := i.tenants.SubdomainExists(ctx, subdomain)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		return nil, ErrSubdomainTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), i.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)

	tenant := &model.Tenant{Name: in.TenantName, CompanyName: in.TenantName, Subdomain: subdomain, Plan: model.PlanFree}
	owner := &model.User{Email: email, Name: in.Name, Password: &hashed}

	switch err := i.tenants.CreateWithOwner(ctx, tenant, owner); {
	case errors.Is(err, repository.ErrSubdomainTaken):
		return nil, ErrSubdomainTaken
	case errors.Is(err, repository.ErrEmailTaken):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("register: %w", err)
	}

	prometheus.RegisterCounter.Inc()
	prometheus.RecordTenantProvisioned("register")
	log.Info("Tenant registered", zap.String("tenant_id", tenant.ID), zap.String("user_id", owner.ID))

	return &Registration{Principal: principalOf(owner), Tenant: tenant}, nil
}

func strongPassword(p string) bool {
	if len(p) < 12 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
