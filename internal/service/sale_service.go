package service

import (
	"context"
	"strings"
	"time"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/event"
	"perfumeria/internal/model"
	"perfumeria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const walkInCustomer = "Clientes Varios"

// SaleService registers single-product counter sales outside the order flow.
type SaleService interface {
	Register(ctx context.Context, userID *uuid.UUID, req dto.RegisterSaleRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
}

type saleService struct {
	tx       repository.Transactor
	sales    repository.SaleRepository
	products repository.ProductRepository
	stock    StockService
	cash     CashService
	events   event.Publisher
	now      func() time.Time
}

func NewSaleService(
	tx repository.Transactor,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	stock StockService,
	cash CashService,
	events event.Publisher,
) SaleService {
	return &saleService{tx: tx, sales: sales, products: products, stock: stock, cash: cash, events: events, now: time.Now}
}

func (s *saleService) Register(ctx context.Context, userID *uuid.UUID, req dto.RegisterSaleRequest) (*dto.SaleResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("product_id inválido", map[string]string{"product_id": "uuid"})
	}
	sessionID, err := parseOptionalUUID(req.CashSessionID)
	if err != nil {
		return nil, apierror.Validation("cash_session_id inválido", map[string]string{"cash_session_id": "uuid"})
	}
	sellerID, err := parseOptionalUUID(req.SellerID)
	if err != nil {
		return nil, apierror.Validation("seller_id inválido", map[string]string{"seller_id": "uuid"})
	}

	product, err := s.products.FindByID(ctx, productID)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "Producto no encontrado")
	}
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apierror.Validation("El producto no está disponible", map[string]string{"product_id": "inactive"})
	}

	unitPrice := req.UnitPrice
	if unitPrice.IsZero() {
		unitPrice = product.Price
	}
	sale := &model.Sale{
		ID:               uuid.New(),
		ProductID:        productID,
		CashSessionID:    sessionID,
		UserID:           userID,
		SellerID:         firstNonNil(sellerID, userID),
		Quantity:         req.Quantity,
		UnitPrice:        unitPrice,
		TotalAmount:      unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		PaymentMethod:    req.PaymentMethod,
		DocumentType:     req.DocumentType,
		CustomerName:     req.CustomerName,
		CustomerDocument: req.CustomerDocument,
		CustomerAddress:  req.CustomerAddress,
		Status:           model.SaleCompleted,
		Notes:            req.Notes,
		SaleDate:         s.now(),
	}
	if doc := strings.TrimSpace(sale.CustomerDocument); doc == "" || doc == "1" {
		sale.CustomerName = walkInCustomer
	}

	var change StockChange
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		c, err := s.stock.Reserve(ctx, tx, productID, sale.Quantity, StockRef{
			Type:          model.StockMoveSale,
			ReferenceType: "sale",
			ReferenceID:   &sale.ID,
			UserID:        userID,
			Reason:        "Venta en tienda",
		})
		if err != nil {
			return err
		}
		change = c
		if err := s.sales.CreateTx(tx, sale); err != nil {
			return err
		}
		if sessionID == nil || !sale.TotalAmount.IsPositive() {
			return nil
		}
		return s.cash.AppendMovementTx(ctx, tx, *sessionID, &model.CashMovement{
			Type:             model.CashMoveSale,
			Amount:           sale.TotalAmount,
			Description:      "Venta de " + change.Name,
			ReferenceID:      &sale.ID,
			ReferenceType:    "sale",
			UserID:           userID,
			SellerID:         sale.SellerID,
			CustomerName:     sale.CustomerName,
			CustomerDocument: sale.CustomerDocument,
			PaymentMethod:    sale.PaymentMethod,
			DocumentType:     sale.DocumentType,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("sale_id", sale.ID.String()).Str("product", change.Name).Int("quantity", sale.Quantity).Msg("sale registered")
	s.events.Publish(ctx, change.Event())
	return saleToResponse(sale, change.NewStock), nil
}

func (s *saleService) Cancel(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	var (
		sale   *model.Sale
		change StockChange
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindForUpdateTx(tx, id)
		if repository.IsNotFound(err) {
			return apierror.E(apierror.ErrNotFound, "Venta no encontrada")
		}
		if err != nil {
			return err
		}
		if sale.Status != model.SaleCompleted {
			return apierror.Ef(apierror.ErrInvalidStateTransition, "La venta no puede anularse en estado %s", sale.Status)
		}
		change, err = s.stock.Release(ctx, tx, sale.ProductID, sale.Quantity, StockRef{
			Type:          model.StockMoveSaleCancel,
			ReferenceType: "sale",
			ReferenceID:   &sale.ID,
			UserID:        sale.UserID,
			Reason:        "Anulación de venta",
		})
		if err != nil {
			return err
		}
		sale.Status = model.SaleCancelled
		return s.sales.UpdateStatusTx(tx, sale.ID, sale.Status)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, change.Event())
	return saleToResponse(sale, change.NewStock), nil
}

func saleToResponse(s *model.Sale, stockAfter int) *dto.SaleResponse {
	return &dto.SaleResponse{
		ID:               s.ID.String(),
		ProductID:        s.ProductID.String(),
		CashSessionID:    uuidString(s.CashSessionID),
		Quantity:         s.Quantity,
		UnitPrice:        s.UnitPrice,
		TotalAmount:      s.TotalAmount,
		PaymentMethod:    s.PaymentMethod,
		DocumentType:     s.DocumentType,
		CustomerName:     s.CustomerName,
		CustomerDocument: s.CustomerDocument,
		Status:           s.Status,
		SaleDate:         s.SaleDate,
		StockAfter:       stockAfter,
	}
}
