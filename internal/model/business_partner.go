package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PartnerCustomer = "customer"
	PartnerSupplier = "supplier"
)

// BusinessPartner is a customer or supplier identified by RUC/DNI.
// (ruc, type) is unique.
type BusinessPartner struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Type      string    `gorm:"type:varchar(10);not null"`
	RUC       string    `gorm:"column:ruc;not null"`
	Email     string
	Phone     string
	Address   string
	IsActive  bool `gorm:"not null;default:true"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SellerCustomer is a seller's own customer directory entry, keyed by
// document when known and by name otherwise.
type SellerCustomer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SellerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Document  string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
