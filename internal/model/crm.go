package model

import (
	"time"

	"github.com/suteetoe/tenantguard/internal/tenantscope"
)

type Contact struct {
	Base
	tenantscope.Owned
	FirstName   string `json:"firstName" gorm:"type:varchar(100)"`
	LastName    string `json:"lastName" gorm:"type:varchar(100)"`
	CompanyName string `json:"companyName" gorm:"type:varchar(255)"`
	Email       string `json:"email" gorm:"type:varchar(255);index"`
	Phone       string `json:"phone" gorm:"type:varchar(50)"`
	Website     string `json:"website" gorm:"type:text"`
	Notes       string `json:"notes" gorm:"type:text"`
}

type Vehicle struct {
	Base
	tenantscope.Owned
	ContactID    *string `json:"contactId" gorm:"type:varchar(36);index"`
	Make         string  `json:"make" gorm:"type:varchar(100)"`
	Model        string  `json:"model" gorm:"type:varchar(100)"`
	Registration string  `json:"registration" gorm:"type:varchar(30);index"`
	VIN          string  `json:"vin" gorm:"type:varchar(17)"`
	Mileage      int     `json:"mileage"`
}

type TaskCategory struct {
	Base
	tenantscope.Owned
	Name  string `json:"name" gorm:"type:varchar(100);not null"`
	Color string `json:"color" gorm:"type:varchar(20)"`
}

type Task struct {
	Base
	tenantscope.Owned
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'TODO'"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *string    `json:"assigneeId" gorm:"type:varchar(36);index"`
	CategoryID  *string    `json:"categoryId" gorm:"type:varchar(36);index"`
	ContactID   *string    `json:"contactId" gorm:"type:varchar(36);index"`
}

type Activity struct {
	Base
	tenantscope.Owned
	Type      string  `json:"type" gorm:"type:varchar(50);not null"`
	Subject   string  `json:"subject" gorm:"type:varchar(255)"`
	Body      string  `json:"body" gorm:"type:text"`
	ContactID *string `json:"contactId" gorm:"type:varchar(36);index"`
	UserID    *string `json:"userId" gorm:"type:varchar(36);index"`
}

type Event struct {
	Base
	tenantscope.Owned
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	StartsAt  time.Time `json:"startsAt" gorm:"index"`
	EndsAt    time.Time `json:"endsAt"`
	Location  string    `json:"location" gorm:"type:varchar(255)"`
	ContactID *string   `json:"contactId" gorm:"type:varchar(36);index"`
}

type Project struct {
	Base
	tenantscope.Owned
	Name      string     `json:"name" gorm:"type:varchar(255);not null"`
	Status    string     `json:"status" gorm:"type:varchar(20);default:'ACTIVE'"`
	ContactID *string    `json:"contactId" gorm:"type:varchar(36);index"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Budget    float64    `json:"budget" gorm:"type:decimal(12,2)"`
}

type ServiceRecord struct {
	Base
	tenantscope.Owned
	VehicleID   string    `json:"vehicleId" gorm:"type:varchar(36);index;not null"`
	PerformedAt time.Time `json:"performedAt"`
	Mileage     int       `json:"mileage"`
	Description string    `json:"description" gorm:"type:text"`
	Cost        float64   `json:"cost" gorm:"type:decimal(12,2)"`
}

type CatalogItem struct {
	Base
	tenantscope.Owned
	Name      string  `json:"name" gorm:"type:varchar(255);not null"`
	SKU       string  `json:"sku" gorm:"type:varchar(100);index"`
	UnitPrice float64 `json:"unitPrice" gorm:"type:decimal(12,2)"`
	VATRateID *string `json:"vatRateId" gorm:"type:varchar(36)"`
	Active    bool    `json:"active" gorm:"default:true"`
}

type InventoryItem struct {
	Base
	tenantscope.Owned
	CatalogItemID string `json:"catalogItemId" gorm:"type:varchar(36);index;not null"`
	Quantity      int    `json:"quantity"`
	Location      string `json:"location" gorm:"type:varchar(100)"`
	ReorderLevel  int    `json:"reorderLevel"`
}
