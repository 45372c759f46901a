package model

import (
	"time"

	"github.com/suteetoe/tenantguard/internal/tenantscope"
)

type AuditLog struct {
	Base
	tenantscope.Owned
	UserID   *string `json:"userId" gorm:"type:varchar(36);index"`
	Action   string  `json:"action" gorm:"type:varchar(100)"`
	Entity   string  `json:"entity" gorm:"type:varchar(100)"`
	EntityID string  `json:"entityId" gorm:"type:varchar(36)"`
	Changes  string  `json:"changes" gorm:"type:jsonb"`
}

type AccessLog struct {
	Base
	tenantscope.Owned
	UserID    *string `json:"userId" gorm:"type:varchar(36);index"`
	Path      string  `json:"path" gorm:"type:varchar(255)"`
	Method    string  `json:"method" gorm:"type:varchar(10)"`
	IP        string  `json:"ip" gorm:"type:varchar(45)"`
	UserAgent string  `json:"userAgent" gorm:"type:text"`
}

type AIUsage struct {
	Base
	tenantscope.Owned
	UserID       *string `json:"userId" gorm:"type:varchar(36);index"`
	Model        string  `json:"model" gorm:"type:varchar(100)"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
}

type TeamInvitation struct {
	Base
	tenantscope.Owned
	Email      string     `json:"email" gorm:"type:varchar(255);index"`
	Role       Role       `json:"role" gorm:"type:varchar(20)"`
	Token      string     `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt"`
}

type UserConsent struct {
	Base
	tenantscope.Owned
	UserID    string    `json:"userId" gorm:"type:varchar(36);index"`
	Purpose   string    `json:"purpose" gorm:"type:varchar(100)"`
	Granted   bool      `json:"granted"`
	GrantedAt time.Time `json:"grantedAt"`
}

type DSARRequest struct {
	Base
	tenantscope.Owned
	Email       string     `json:"email" gorm:"type:varchar(255)"`
	Kind        string     `json:"kind" gorm:"type:varchar(20)"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	CompletedAt *time.Time `json:"completedAt"`
}

type DataRetentionPolicy struct {
	Base
	tenantscope.Owned
	Entity        string `json:"entity" gorm:"type:varchar(100)"`
	RetentionDays int    `json:"retentionDays"`
}
