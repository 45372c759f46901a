package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/tenantscope"
	"github.com/suteetoe/tenantguard/prometheus"
)

// UserRepository reads and writes users. Calls made with a context carrying a
// tenant are confined to it by the tenant scope plugin; calls without one see
// every tenant, which sign-in needs to resolve an email.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns the user with its tenant loaded. The email is matched as
// stored.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_find_by_email")()

	var user model.User
	err := r.db.WithContext(ctx).Preload("Tenant").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns the user with its tenant loaded.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_find_by_id")()

	var user model.User
	err := r.db.WithContext(ctx).Preload("Tenant").Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts user.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("user_create")()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ListTeam returns the users of the tenant carried by ctx.
func (r *UserRepository) ListTeam(ctx context.Context) ([]model.User, error) {
	if _, ok := tenantscope.TenantFrom(ctx); !ok {
		return nil, ErrNoTenant
	}
	defer prometheus.TrackDBOperation("user_list_team")()

	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	return users, nil
}

// UpdateProfile sets the display fields of the user. It reports ErrNotFound
// when no row in scope matched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, image string) error {
	defer prometheus.TrackDBOperation("user_update_profile")()

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "image": image})
	if res.Error != nil {
		return fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkAccount records the provider identity for the user unless it is already
// linked.
func (r *UserRepository) LinkAccount(ctx context.Context, account *model.Account) error {
	defer prometheus.TrackDBOperation("account_link")()

	err := r.db.WithContext(ctx).
		Where(model.Account{Provider: account.Provider, ProviderAccountID: account.ProviderAccountID}).
		FirstOrCreate(account).Error
	if err != nil {
		return fmt.Errorf("link account: %w", err)
	}
	return nil
}
