package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterPurchaseRequest struct {
	ProductID         string          `json:"product_id"          validate:"required,uuid"`
	BusinessPartnerID string          `json:"business_partner_id" validate:"omitempty,uuid"`
	CashSessionID     string          `json:"cash_session_id"     validate:"omitempty,uuid"`
	Quantity          int             `json:"quantity"            validate:"required,min=1"`
	UnitCost          decimal.Decimal `json:"unit_cost"           validate:"min=0"`
	Supplier          string          `json:"supplier"            validate:"omitempty,max=255"`
	SupplierRUC       string          `json:"supplier_ruc"        validate:"omitempty,max=11"`
	InvoiceNumber     string          `json:"invoice_number"      validate:"omitempty,max=50"`
	DocumentType      string          `json:"document_type"       validate:"omitempty,oneof=ticket boleta factura"`
	Notes             string          `json:"notes"`
	PurchaseDate      *time.Time      `json:"purchase_date"`
}

type PurchaseResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	BusinessPartnerID *string         `json:"business_partner_id"`
	Quantity          int             `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Supplier          string          `json:"supplier"`
	SupplierRUC       string          `json:"supplier_ruc"`
	InvoiceNumber     string          `json:"invoice_number"`
	DocumentType      string          `json:"document_type"`
	Notes             string          `json:"notes"`
	Status            string          `json:"status"`
	PurchaseDate      time.Time       `json:"purchase_date"`
	StockAfter        int             `json:"stock_after"`
}

type RegisterSaleRequest struct {
	ProductID        string          `json:"product_id"        validate:"required,uuid"`
	CashSessionID    string          `json:"cash_session_id"   validate:"omitempty,uuid"`
	SellerID         string          `json:"seller_id"         validate:"omitempty,uuid"`
	Quantity         int             `json:"quantity"          validate:"required,min=1"`
	UnitPrice        decimal.Decimal `json:"unit_price"        validate:"min=0"`
	PaymentMethod    string          `json:"payment_method"    validate:"required,oneof=cash card yape transfer"`
	DocumentType     string          `json:"document_type"     validate:"omitempty,oneof=ticket boleta factura"`
	CustomerName     string          `json:"customer_name"     validate:"omitempty,max=255"`
	CustomerDocument string          `json:"customer_document" validate:"omitempty,max=20"`
	CustomerAddress  string          `json:"customer_address"`
	Notes            string          `json:"notes"`
}

type SaleResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	CashSessionID    *string         `json:"cash_session_id"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentMethod    string          `json:"payment_method"`
	DocumentType     string          `json:"document_type"`
	CustomerName     string          `json:"customer_name"`
	CustomerDocument string          `json:"customer_document"`
	Status           string          `json:"status"`
	SaleDate         time.Time       `json:"sale_date"`
	StockAfter       int             `json:"stock_after"`
}
