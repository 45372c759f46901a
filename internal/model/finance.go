package model

import (
	"time"

	"github.com/suteetoe/tenantguard/internal/tenantscope"
)

type Quote struct {
	Base
	tenantscope.Owned
	Number     string     `json:"number" gorm:"type:varchar(50);index"`
	ContactID  string     `json:"contactId" gorm:"type:varchar(36);index"`
	Status     string     `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	TotalHT    float64    `json:"totalHt" gorm:"type:decimal(12,2)"`
	TotalTTC   float64    `json:"totalTtc" gorm:"type:decimal(12,2)"`
	ValidUntil *time.Time `json:"validUntil"`
}

type Invoice struct {
	Base
	tenantscope.Owned
	Number        string     `json:"number" gorm:"type:varchar(50);index"`
	ContactID     string     `json:"contactId" gorm:"type:varchar(36);index"`
	QuoteID       *string    `json:"quoteId" gorm:"type:varchar(36)"`
	Status        string     `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	TotalHT       float64    `json:"totalHt" gorm:"type:decimal(12,2)"`
	TotalTTC      float64    `json:"totalTtc" gorm:"type:decimal(12,2)"`
	DueDate       *time.Time `json:"dueDate"`
	PaidAt        *time.Time `json:"paidAt"`
	PaymentTermID *string    `json:"paymentTermId" gorm:"type:varchar(36)"`
}

type Expense struct {
	Base
	tenantscope.Owned
	Label     string    `json:"label" gorm:"type:varchar(255)"`
	Amount    float64   `json:"amount" gorm:"type:decimal(12,2)"`
	VATAmount float64   `json:"vatAmount" gorm:"type:decimal(12,2)"`
	SpentAt   time.Time `json:"spentAt"`
	Category  string    `json:"category" gorm:"type:varchar(100)"`
}

type BankAccount struct {
	Base
	tenantscope.Owned
	Name     string  `json:"name" gorm:"type:varchar(100)"`
	IBAN     string  `json:"iban" gorm:"type:varchar(34)"`
	BIC      string  `json:"bic" gorm:"type:varchar(11)"`
	Balance  float64 `json:"balance" gorm:"type:decimal(14,2)"`
	Currency string  `json:"currency" gorm:"type:varchar(3);default:'EUR'"`
}

type BankTransaction struct {
	Base
	tenantscope.Owned
	BankAccountID string    `json:"bankAccountId" gorm:"type:varchar(36);index;not null"`
	BookedAt      time.Time `json:"bookedAt" gorm:"index"`
	Label         string    `json:"label" gorm:"type:varchar(255)"`
	Amount        float64   `json:"amount" gorm:"type:decimal(14,2)"`
	Reconciled    bool      `json:"reconciled"`
}

type BankReconciliation struct {
	Base
	tenantscope.Owned
	BankTransactionID string  `json:"bankTransactionId" gorm:"type:varchar(36);index;not null"`
	InvoiceID         *string `json:"invoiceId" gorm:"type:varchar(36)"`
	ExpenseID         *string `json:"expenseId" gorm:"type:varchar(36)"`
	Amount            float64 `json:"amount" gorm:"type:decimal(14,2)"`
}

type VATRate struct {
	Base
	tenantscope.Owned
	Label     string  `json:"label" gorm:"type:varchar(50)"`
	Rate      float64 `json:"rate" gorm:"type:decimal(5,2)"`
	IsDefault bool    `json:"isDefault"`
}

type PaymentTerm struct {
	Base
	tenantscope.Owned
	Label string `json:"label" gorm:"type:varchar(100)"`
	Days  int    `json:"days"`
}

type CustomPaymentMethod struct {
	Base
	tenantscope.Owned
	Name   string `json:"name" gorm:"type:varchar(100)"`
	Active bool   `json:"active" gorm:"default:true"`
}

type FinancialReport struct {
	Base
	tenantscope.Owned
	Kind        string    `json:"kind" gorm:"type:varchar(50)"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Payload     string    `json:"payload" gorm:"type:jsonb"`
}

type TaxDocument struct {
	Base
	tenantscope.Owned
	Kind    string `json:"kind" gorm:"type:varchar(50)"`
	Year    int    `json:"year"`
	FileURL string `json:"fileUrl" gorm:"type:text"`
	Status  string `json:"status" gorm:"type:varchar(20)"`
}

type PayrollDocument struct {
	Base
	tenantscope.Owned
	EmployeeName string `json:"employeeName" gorm:"type:varchar(255)"`
	Period       string `json:"period" gorm:"type:varchar(7)"`
	FileURL      string `json:"fileUrl" gorm:"type:text"`
}
