package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	ProductID string `json:"id"       validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Source            string `json:"source"             validate:"omitempty,oneof=web seller"`
	UserID            string `json:"user_id"            validate:"omitempty,uuid"`
	CustomerName      string `json:"customer_name"      validate:"required,max=255"`
	CustomerEmail     string `json:"customer_email"     validate:"omitempty,email,max=255"`
	CustomerPhone     string `json:"customer_phone"     validate:"omitempty,max=20"`
	CustomerDocument  string `json:"customer_document"  validate:"omitempty,max=50"`
	DeliveryType      string `json:"delivery_type"      validate:"required,oneof=home agency"`
	ShippingAddress   string `json:"shipping_address"`
	ShippingDistrict  string `json:"shipping_district"  validate:"omitempty,max=100"`
	ShippingReference string `json:"shipping_reference"`
	AgencyType        string `json:"agency_type"        validate:"omitempty,oneof=olva shalom"`
	AgencyID          string `json:"agency_id"          validate:"omitempty,max=100"`
	AgencyName        string `json:"agency_name"        validate:"omitempty,max=255"`
	AgencyAddress     string `json:"agency_address"`

	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`

	// Subtotal and Total are pointers so an omitted value fails "required"
	// instead of decoding as zero.
	Subtotal     *decimal.Decimal `json:"subtotal"      validate:"required,min=0"`
	Tax          decimal.Decimal  `json:"tax"           validate:"min=0"`
	ShippingCost decimal.Decimal  `json:"shipping_cost" validate:"min=0"`
	Total        *decimal.Decimal `json:"total"         validate:"required,min=0"`

	PaymentMethod string `json:"payment_method" validate:"required,oneof=paypal yape cash card transfer"`
	PaymentStatus string `json:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
	// Status is the initial status only. Later states go through UpdateStatus.
	Status        string `json:"status"         validate:"omitempty,oneof=pending processing"`
	TransactionID string `json:"transaction_id" validate:"omitempty,max=255"`
	ApprovalCode  string `json:"approval_code"  validate:"omitempty,max=50"`
	Notes         string `json:"notes"`
	DocumentType  string `json:"document_type"  validate:"omitempty,oneof=ticket boleta factura"`
}

// UpdateOrderRequest carries an admin update. Nil fields are left untouched.
type UpdateOrderRequest struct {
	Status              *string          `json:"status"                validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	PaymentStatus       *string          `json:"payment_status"        validate:"omitempty,oneof=pending paid failed refunded"`
	AdminNotes          *string          `json:"admin_notes"`
	TrackingNumber      *string          `json:"tracking_number"       validate:"omitempty,max=100"`
	TrackingOrderNumber *string          `json:"tracking_order_number" validate:"omitempty,max=100"`
	ShippingCost        *decimal.Decimal `json:"shipping_cost"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"omitempty,max=255"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// OrderFilter holds query parameters for listing orders.
type OrderFilter struct {
	Source               string `form:"source"`
	Status               string `form:"status"`
	PaymentStatus        string `form:"payment_status"`
	CustomerEmail        string `form:"customer_email"`
	RequiresConfirmation *bool  `form:"requires_confirmation"`
	Page                 int    `form:"page"`
	PerPage              int    `form:"per_page"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID   string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
}

type OrderResponse struct {
	ID                        string              `json:"id"`
	OrderNumber               string              `json:"order_number"`
	UserID                    *string             `json:"user_id"`
	Source                    string              `json:"source"`
	CustomerName              string              `json:"customer_name"`
	CustomerEmail             string              `json:"customer_email"`
	CustomerPhone             string              `json:"customer_phone"`
	CustomerDocument          string              `json:"customer_document"`
	DeliveryType              string              `json:"delivery_type"`
	ShippingAddress           string              `json:"shipping_address"`
	ShippingDistrict          string              `json:"shipping_district"`
	ShippingReference         string              `json:"shipping_reference"`
	AgencyType                string              `json:"agency_type"`
	AgencyID                  string              `json:"agency_id"`
	AgencyName                string              `json:"agency_name"`
	AgencyAddress             string              `json:"agency_address"`
	Items                     []OrderItemResponse `json:"items"`
	Subtotal                  decimal.Decimal     `json:"subtotal"`
	Tax                       decimal.Decimal     `json:"tax"`
	ShippingCost              decimal.Decimal     `json:"shipping_cost"`
	Total                     decimal.Decimal     `json:"total"`
	PaymentMethod             string              `json:"payment_method"`
	TransactionID             string              `json:"transaction_id"`
	ApprovalCode              string              `json:"approval_code"`
	PaymentStatus             string              `json:"payment_status"`
	Status                    string              `json:"status"`
	Notes                     string              `json:"notes"`
	AdminNotes                string              `json:"admin_notes"`
	TrackingNumber            string              `json:"tracking_number"`
	TrackingOrderNumber       string              `json:"tracking_order_number"`
	ShippedAt                 *time.Time          `json:"shipped_at"`
	RequiresAdminConfirmation bool                `json:"requires_admin_confirmation"`
	DocumentType              string              `json:"document_type"`
	CreatedAt                 time.Time           `json:"created_at"`
	UpdatedAt                 time.Time           `json:"updated_at"`
}

type OrderListResponse struct {
	Data       []OrderResponse `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}
