package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderSourceWeb    = "web"
	OrderSourceSeller = "seller"

	DeliveryHome   = "home"
	DeliveryAgency = "agency"

	PaymentPaypal   = "paypal"
	PaymentYape     = "yape"
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"

	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderItem is a snapshot of the product taken when the order was placed.
// It survives later edits or deletion of the product.
type OrderItem struct {
	ProductID   uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
}

// Order is a customer purchase placed either online (web) or at the counter (seller).
type Order struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber string     `gorm:"uniqueIndex;not null"`
	UserID      *uuid.UUID `gorm:"type:uuid;index"`
	Source      string     `gorm:"type:varchar(10);not null"`

	CustomerName     string `gorm:"not null"`
	CustomerEmail    string
	CustomerPhone    string
	CustomerDocument string

	DeliveryType      string `gorm:"type:varchar(10);not null"`
	ShippingAddress   string
	ShippingDistrict  string
	ShippingReference string
	AgencyType        string
	AgencyID          string
	AgencyName        string
	AgencyAddress     string

	Items []OrderItem `gorm:"type:jsonb;serializer:json;not null"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Tax          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	PaymentMethod string `gorm:"type:varchar(20);not null"`
	TransactionID string
	ApprovalCode  string
	PaymentStatus string `gorm:"type:varchar(20);not null"`
	Status        string `gorm:"type:varchar(20);not null;index"`

	Notes                     string
	AdminNotes                string
	TrackingNumber            string
	TrackingOrderNumber       string
	ShippedAt                 *time.Time
	RequiresAdminConfirmation bool   `gorm:"not null;default:false"`
	DocumentType              string `gorm:"type:varchar(10)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanBeCancelled reports whether stock may still be returned for this order.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// IsFinal reports whether the order has left the workflow.
func (o *Order) IsFinal() bool {
	return o.Status == OrderStatusCancelled || o.Status == OrderStatusDelivered
}
