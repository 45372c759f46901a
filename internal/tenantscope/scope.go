// Package tenantscope confines gorm statements on tenant owned models to one
// tenant. A model opts in by embedding Owned (or implementing Scoped); the
// Plugin then pins a tenant_id predicate onto every query, update and delete,
// replacing any structured tenant_id condition the caller supplied,
// and stamps tenant_id onto every created row, using the tenant carried by the
// statement context.
//
// Raw SQL issued with Raw or Exec is not rewritten, and neither are tables
// pulled in through Joins.
package tenantscope

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Column is the tenant foreign key every scoped table carries.
const Column = "tenant_id"

// ErrMissingTenant is returned when a Scope is built without a tenant id.
var ErrMissingTenant = errors.New("tenantscope: tenant id is required")

// Scoped is implemented by models whose rows belong to a tenant.
type Scoped interface {
	TenantScoped()
}

// Owned is embedded by tenant owned models.
type Owned struct {
	TenantID string `gorm:"type:varchar(36);index;not null" json:"tenantId"`
}

// TenantScoped marks the embedding model as tenant owned.
func (Owned) TenantScoped() {}

type ctxKey struct{}

// WithTenant returns a context whose gorm statements are confined to tenantID.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// TenantFrom returns the tenant carried by ctx.
func TenantFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Scope binds a database handle to one tenant. Build one per request from the
// authenticated session and never share it across requests.
type Scope struct {
	db       *gorm.DB
	tenantID string
}

// New binds db to tenantID. db must have the Plugin installed.
func New(db *gorm.DB, tenantID string) (*Scope, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	return &Scope{db: db, tenantID: tenantID}, nil
}

// TenantID returns the bound tenant.
func (s *Scope) TenantID() string {
	return s.tenantID
}

// DB returns a session whose statements are confined to the bound tenant.
func (s *Scope) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(WithTenant(ctx, s.tenantID))
}

// Transaction runs fc in a transaction confined to the bound tenant.
func (s *Scope) Transaction(ctx context.Context, fc func(tx *gorm.DB) error) error {
	return s.DB(ctx).Transaction(fc)
}
