package model

import (
	"time"

	"github.com/suteetoe/tenantguard/internal/tenantscope"
)

type Document struct {
	Base
	tenantscope.Owned
	Name      string  `json:"name" gorm:"type:varchar(255)"`
	MimeType  string  `json:"mimeType" gorm:"type:varchar(100)"`
	Size      int64   `json:"size"`
	FileURL   string  `json:"fileUrl" gorm:"type:text"`
	ContactID *string `json:"contactId" gorm:"type:varchar(36);index"`
}

type LegalDocument struct {
	Base
	tenantscope.Owned
	Kind     string     `json:"kind" gorm:"type:varchar(50)"`
	Title    string     `json:"title" gorm:"type:varchar(255)"`
	Content  string     `json:"content" gorm:"type:text"`
	SignedAt *time.Time `json:"signedAt"`
}

type Litigation struct {
	Base
	tenantscope.Owned
	ContactID string  `json:"contactId" gorm:"type:varchar(36);index"`
	InvoiceID *string `json:"invoiceId" gorm:"type:varchar(36)"`
	Status    string  `json:"status" gorm:"type:varchar(20)"`
	Amount    float64 `json:"amount" gorm:"type:decimal(12,2)"`
	Notes     string  `json:"notes" gorm:"type:text"`
}
