package model

// Role orders what a user may do inside their tenant.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOwner      Role = "OWNER"
	RoleManager    Role = "MANAGER"
	RoleUser       Role = "USER"
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleManager:    2,
	RoleOwner:      3,
	RoleSuperAdmin: 4,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above required. Unknown roles rank
// below everything.
func (r Role) AtLeast(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}

// User is a person signing in to a tenant. Password is nil for accounts that
// only ever signed in through an OAuth provider. TenantID is nil only while a
// first OAuth sign-in is being provisioned.
type User struct {
	Base
	Email    string  `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name     string  `json:"name" gorm:"type:varchar(255)"`
	Image    string  `json:"image,omitempty" gorm:"type:text"`
	Password *string `json:"-" gorm:"type:varchar(255)"`
	Role     Role    `json:"role" gorm:"type:varchar(20);not null;default:'USER'"`
	TenantID *string `json:"tenantId" gorm:"type:varchar(36);index"`
	Tenant   *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// TenantScoped marks users as tenant owned.
func (User) TenantScoped() {}

// Account links a user to an external identity provider. Lookups happen
// before the tenant is known, so it is not tenant scoped.
type Account struct {
	Base
	UserID            string `json:"userId" gorm:"type:varchar(36);index;not null"`
	Provider          string `json:"provider" gorm:"type:varchar(50);not null;uniqueIndex:idx_account_provider"`
	ProviderAccountID string `json:"providerAccountId" gorm:"type:varchar(255);not null;uniqueIndex:idx_account_provider"`
}
