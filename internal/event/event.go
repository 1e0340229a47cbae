// Package event carries domain events from services to listeners after the
// originating transaction has committed.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ChannelOrders   = "orders"
	ChannelProducts = "products"
	ChannelCash     = "cash"
)

// Event is a typed domain event. Name is the broadcast event name and
// Channel the pub/sub channel it is broadcast on.
type Event interface {
	Name() string
	Channel() string
}

// Keyed events expose the partition key used by relays (the entity id).
type Keyed interface {
	Key() string
}

type OrderCreated struct {
	OrderID                   uuid.UUID       `json:"order_id"`
	OrderNumber               string          `json:"order_number"`
	UserID                    *uuid.UUID      `json:"user_id,omitempty"`
	Source                    string          `json:"source"`
	CustomerName              string          `json:"customer_name"`
	PaymentMethod             string          `json:"payment_method"`
	PaymentStatus             string          `json:"payment_status"`
	Status                    string          `json:"status"`
	Total                     decimal.Decimal `json:"total"`
	ItemCount                 int             `json:"item_count"`
	RequiresAdminConfirmation bool            `json:"requires_admin_confirmation"`
	CreatedAt                 time.Time       `json:"created_at"`
}

func (OrderCreated) Name() string { return "order.created" }
func (OrderCreated) Channel() string { return ChannelOrders }
func (e OrderCreated) Key() string { return e.OrderID.String() }

type OrderStatusChanged struct {
	OrderID        uuid.UUID  `json:"order_id"`
	OrderNumber    string     `json:"order_number"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	CustomerName   string     `json:"customer_name"`
	From           string     `json:"from"`
	To             string     `json:"to"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	ChangedAt      time.Time  `json:"changed_at"`
}

func (OrderStatusChanged) Name() string { return "order.status_changed" }
func (OrderStatusChanged) Channel() string { return ChannelOrders }
func (e OrderStatusChanged) Key() string { return e.OrderID.String() }

type PaymentConfirmed struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        *uuid.UUID      `json:"user_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
}

func (PaymentConfirmed) Name() string { return "order.payment_confirmed" }
func (PaymentConfirmed) Channel() string { return ChannelOrders }
func (e PaymentConfirmed) Key() string { return e.OrderID.String() }

type ProductStockUpdated struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	OldStock  int       `json:"old_stock"`
	NewStock  int       `json:"new_stock"`
}

func (ProductStockUpdated) Name() string { return "product.stock_updated" }
func (ProductStockUpdated) Channel() string { return ChannelProducts }
func (e ProductStockUpdated) Key() string { return e.ProductID.String() }

type CashSessionClosed struct {
	SessionID      uuid.UUID       `json:"session_id"`
	CashRegisterID uuid.UUID       `json:"cash_register_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ClosingAmount  decimal.Decimal `json:"closing_amount"`
	Difference     decimal.Decimal `json:"difference"`
	ClosedAt       time.Time       `json:"closed_at"`
}

func (CashSessionClosed) Name() string { return "cash.session_closed" }
func (CashSessionClosed) Channel() string { return ChannelCash }
func (e CashSessionClosed) Key() string { return e.CashRegisterID.String() }
