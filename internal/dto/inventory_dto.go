package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryMovementRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Type      string `json:"type"       validate:"required,oneof=ingreso retiro"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
	Reason    string `json:"reason"     validate:"required,max=255"`
	Notes     string `json:"notes"`
}

type StockMovementFilter struct {
	ProductID string `form:"product_id"`
	Type      string `form:"type"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

type StockMovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name,omitempty"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	Reason        string    `json:"reason"`
	Notes         string    `json:"notes"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
	UserID        *string   `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Image       string          `json:"image"`
	IsActive    bool            `json:"is_active"`
}
