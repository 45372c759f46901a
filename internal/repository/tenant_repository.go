package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/prometheus"
)

// TenantRepository creates tenants and binds their owners.
type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// FindByID returns the tenant, soft deleted or not.
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("tenant_find_by_id")()

	var tenant model.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return &tenant, nil
}

// SubdomainExists reports whether any tenant, deleted ones included, holds subdomain.
func (r *TenantRepository) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	defer prometheus.TrackDBOperation("tenant_subdomain_exists")()

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Tenant{}).Where("subdomain = ?", subdomain).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check subdomain: %w", err)
	}
	return count > 0, nil
}

// CreateWithOwner inserts tenant and a new owner user bound to it in one
// transaction.
func (r *TenantRepository) CreateWithOwner(ctx context.Context, tenant *model.Tenant, owner *model.User) error {
	defer prometheus.TrackDBOperation("tenant_create_with_owner")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return translateTenantErr(err)
		}
		owner.TenantID = &tenant.ID
		owner.Role = model.RoleOwner
		if err := tx.Create(owner).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create owner: %w", err)
		}
		return nil
	})
	if err != nil {
		owner.TenantID = nil
		return err
	}
	return nil
}

// ProvisionForUser inserts tenant and promotes an existing tenantless user to
// its owner in one transaction. Either both happen or neither does.
func (r *TenantRepository) ProvisionForUser(ctx context.Context, tenant *model.Tenant, user *model.User) error {
	defer prometheus.TrackDBOperation("tenant_provision")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return translateTenantErr(err)
		}
		res := tx.Model(&model.User{}).
			Where("id = ? AND tenant_id IS NULL", user.ID).
			Updates(map[string]interface{}{"tenant_id": tenant.ID, "role": model.RoleOwner})
		if res.Error != nil {
			return fmt.Errorf("promote owner: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("promote owner: user %s is missing or already has a tenant", user.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	user.TenantID = &tenant.ID
	user.Role = model.RoleOwner
	user.Tenant = tenant
	return nil
}

func translateTenantErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSubdomainTaken
	}
	return fmt.Errorf("create tenant: %w", err)
}
