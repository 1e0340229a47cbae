package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateRegisterRequest struct {
	Name              string `json:"name"                validate:"required,max=255"`
	Code              string `json:"code"                validate:"omitempty,max=50"`
	Location          string `json:"location"            validate:"omitempty,max=255"`
	ResponsibleUserID string `json:"responsible_user_id" validate:"omitempty,uuid"`
	IsCollectionBox   bool   `json:"is_collection_box"`
}

// UpdateRegisterRequest edits a register. Nil fields are left untouched and
// an empty responsible_user_id clears the assignment.
type UpdateRegisterRequest struct {
	Name              *string `json:"name"                validate:"omitempty,min=1,max=255"`
	Code              *string `json:"code"                validate:"omitempty,min=1,max=50"`
	Location          *string `json:"location"            validate:"omitempty,max=255"`
	ResponsibleUserID *string `json:"responsible_user_id" validate:"omitempty"`
	IsActive          *bool   `json:"is_active"`
	IsCollectionBox   *bool   `json:"is_collection_box"`
}

type OpenSessionRequest struct {
	CashRegisterID string          `json:"cash_register_id" validate:"required,uuid"`
	OpeningAmount  decimal.Decimal `json:"opening_amount"   validate:"min=0"`
	Notes          string          `json:"notes"`
}

type CloseSessionRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount" validate:"min=0"`
	Notes         string          `json:"notes"`
}

type AppendNotesRequest struct {
	Notes string `json:"notes" validate:"required"`
}

type AddMovementRequest struct {
	CashSessionID    string          `json:"cash_session_id"   validate:"required,uuid"`
	Type             string          `json:"type"              validate:"required,oneof=sale purchase income expense opening deposit withdrawal"`
	Amount           decimal.Decimal `json:"amount"            validate:"gt=0"`
	Description      string          `json:"description"       validate:"required,max=255"`
	ReferenceID      string          `json:"reference_id"      validate:"omitempty,uuid"`
	ReferenceType    string          `json:"reference_type"    validate:"omitempty,max=50"`
	SellerID         string          `json:"seller_id"         validate:"omitempty,uuid"`
	CustomerName     string          `json:"customer_name"     validate:"omitempty,max=255"`
	CustomerDocument string          `json:"customer_document" validate:"omitempty,max=20"`
	PaymentMethod    string          `json:"payment_method"    validate:"omitempty,oneof=cash card yape transfer"`
	DocumentType     string          `json:"document_type"     validate:"omitempty,oneof=ticket boleta factura"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RegisterResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Code              string          `json:"code"`
	Location          string          `json:"location"`
	ResponsibleUserID *string         `json:"responsible_user_id"`
	IsActive          bool            `json:"is_active"`
	IsCollectionBox   bool            `json:"is_collection_box"`
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	CurrentSession    *SessionResponse `json:"current_session,omitempty"`
}

type SessionResponse struct {
	ID             string           `json:"id"`
	CashRegisterID string           `json:"cash_register_id"`
	UserID         *string          `json:"user_id"`
	OpenedAt       time.Time        `json:"opening_date"`
	ClosedAt       *time.Time       `json:"closing_date"`
	OpeningAmount  decimal.Decimal  `json:"opening_amount"`
	ExpectedAmount decimal.Decimal  `json:"expected_amount"`
	ClosingAmount  *decimal.Decimal `json:"closing_amount"`
	Difference     *decimal.Decimal `json:"difference"`
	Status         string           `json:"status"`
	Notes          string           `json:"notes"`
}

type MovementResponse struct {
	ID               string          `json:"id"`
	CashSessionID    string          `json:"cash_session_id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	ReferenceID      *string         `json:"reference_id"`
	ReferenceType    string          `json:"reference_type"`
	UserID           *string         `json:"user_id"`
	SellerID         *string         `json:"seller_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerDocument string          `json:"customer_document"`
	PaymentMethod    string          `json:"payment_method"`
	DocumentType     string          `json:"document_type"`
	CreatedAt        time.Time       `json:"created_at"`
}
