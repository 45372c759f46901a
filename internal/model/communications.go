package model

import (
	"time"

	"github.com/suteetoe/tenantguard/internal/tenantscope"
)

type Conversation struct {
	Base
	tenantscope.Owned
	Channel   string  `json:"channel" gorm:"type:varchar(20)"`
	ContactID *string `json:"contactId" gorm:"type:varchar(36);index"`
	Subject   string  `json:"subject" gorm:"type:varchar(255)"`
}

type Message struct {
	Base
	tenantscope.Owned
	ConversationID string    `json:"conversationId" gorm:"type:varchar(36);index;not null"`
	Direction      string    `json:"direction" gorm:"type:varchar(10)"`
	Body           string    `json:"body" gorm:"type:text"`
	SentAt         time.Time `json:"sentAt"`
}

type EmailAccount struct {
	Base
	tenantscope.Owned
	UserID   string `json:"userId" gorm:"type:varchar(36);index"`
	Address  string `json:"address" gorm:"type:varchar(255)"`
	Provider string `json:"provider" gorm:"type:varchar(50)"`
	SMTPHost string `json:"smtpHost" gorm:"type:varchar(255)"`
}

type Email struct {
	Base
	tenantscope.Owned
	EmailAccountID *string    `json:"emailAccountId" gorm:"type:varchar(36);index"`
	From           string     `json:"from" gorm:"type:varchar(255)"`
	To             string     `json:"to" gorm:"type:text"`
	Subject        string     `json:"subject" gorm:"type:varchar(255)"`
	BodyHTML       string     `json:"bodyHtml" gorm:"type:text"`
	SentAt         *time.Time `json:"sentAt"`
}

type Webhook struct {
	Base
	tenantscope.Owned
	URL    string `json:"url" gorm:"type:text;not null"`
	Events string `json:"events" gorm:"type:text"`
	Secret string `json:"-" gorm:"type:varchar(255)"`
	Active bool   `json:"active" gorm:"default:true"`
}
