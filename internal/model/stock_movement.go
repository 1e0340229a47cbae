package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement types. Quantity is signed: positive adds, negative removes.
const (
	StockMoveOrder          = "order"
	StockMoveOrderCancel    = "order_cancel"
	StockMoveSale           = "sale"
	StockMoveSaleCancel     = "sale_cancel"
	StockMovePurchase       = "purchase"
	StockMovePurchaseCancel = "purchase_cancel"
	StockMoveInventoryIn    = "inventory_in"
	StockMoveInventoryOut   = "inventory_out"
)

// StockMovement records every change of a product's stock counter.
// Exactly one row is written per Reserve / Release / Adjust.
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Type          string     `gorm:"type:varchar(20);not null" json:"type"`
	Quantity      int        `gorm:"not null" json:"quantity"`
	PreviousStock int        `gorm:"not null" json:"previous_stock"`
	NewStock      int        `gorm:"not null" json:"new_stock"`
	Reason        string     `json:"reason"`
	Notes         string     `json:"notes"`
	ReferenceType string     `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	UserID        *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
