package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PurchaseReceived  = "received"
	PurchaseCancelled = "cancelled"

	SaleCompleted = "completed"
	SaleCancelled = "cancelled"
)

// Purchase is stock received from a supplier. Registering one adds stock;
// cancelling it removes the same quantity again.
type Purchase struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	BusinessPartnerID *uuid.UUID      `gorm:"type:uuid"`
	CashSessionID     *uuid.UUID      `gorm:"type:uuid"`
	Quantity          int             `gorm:"not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Supplier          string
	SupplierRUC       string `gorm:"column:supplier_ruc"`
	InvoiceNumber     string
	DocumentType      string `gorm:"type:varchar(10)"`
	Notes             string
	Status            string    `gorm:"type:varchar(10);not null;default:'received'"`
	PurchaseDate      time.Time `gorm:"not null"`
	UserID            *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Sale is a single-product counter sale registered outside the order flow.
type Sale struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashSessionID    *uuid.UUID      `gorm:"type:uuid"`
	UserID           *uuid.UUID      `gorm:"type:uuid"`
	SellerID         *uuid.UUID      `gorm:"type:uuid"`
	Quantity         int             `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod    string          `gorm:"type:varchar(20);not null"`
	DocumentType     string          `gorm:"type:varchar(10)"`
	CustomerName     string
	CustomerDocument string
	CustomerAddress  string
	Status           string    `gorm:"type:varchar(10);not null;default:'completed'"`
	Notes            string
	SaleDate         time.Time `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
