package model

import "time"

// Plan is a tenant's subscription tier.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanStarter    Plan = "STARTER"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

// Tenant is the isolation boundary. It is not tenant scoped itself.
//
// DeletedAt is a plain timestamp rather than gorm.DeletedAt so a deleted
// tenant still loads and sign-in can tell it apart from a missing one.
type Tenant struct {
	Base
	Name        string     `json:"name" gorm:"type:varchar(100);not null"`
	CompanyName string     `json:"companyName" gorm:"type:varchar(255)"`
	Subdomain   string     `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Plan        Plan       `json:"plan" gorm:"type:varchar(20);not null;default:'FREE'"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

// Active reports whether the tenant has not been soft deleted.
func (t *Tenant) Active() bool {
	return t.DeletedAt == nil
}
