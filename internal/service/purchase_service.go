package service

import (
	"context"
	"errors"
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

// PurchaseService registers stock received from suppliers.
type PurchaseService interface {
	Register(ctx context.Context, userID *uuid.UUID, req dto.RegisterPurchaseRequest) (*dto.PurchaseResponse, error)
	// Cancel takes the purchased units back out of stock. It fails with
	// InsufficientStock when they were already sold.
	Cancel(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
}

type purchaseService struct {
	tx        repository.Transactor
	purchases repository.PurchaseRepository
	stock     StockService
	cash      CashService
	events    event.Publisher
	now       func() time.Time
}

func NewPurchaseService(
	tx repository.Transactor,
	purchases repository.PurchaseRepository,
	stock StockService,
	cash CashService,
	events event.Publisher,
) PurchaseService {
	return &purchaseService{tx: tx, purchases: purchases, stock: stock, cash: cash, events: events, now: time.Now}
}

func (s *purchaseService) Register(ctx context.Context, userID *uuid.UUID, req dto.RegisterPurchaseRequest) (*dto.PurchaseResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("product_id inválido", map[string]string{"product_id": "uuid"})
	}
	partnerID, err := parseOptionalUUID(req.BusinessPartnerID)
	if err != nil {
		return nil, apierror.Validation("business_partner_id inválido", map[string]string{"business_partner_id": "uuid"})
	}
	sessionID, err := parseOptionalUUID(req.CashSessionID)
	if err != nil {
		return nil, apierror.Validation("cash_session_id inválido", map[string]string{"cash_session_id": "uuid"})
	}
	if req.UnitCost.IsNegative() {
		return nil, apierror.Validation("El costo unitario no puede ser negativo", map[string]string{"unit_cost": "min"})
	}

	p := &model.Purchase{
		ID:                uuid.New(),
		ProductID:         productID,
		BusinessPartnerID: partnerID,
		CashSessionID:     sessionID,
		Quantity:          req.Quantity,
		UnitCost:          req.UnitCost,
		TotalCost:         req.UnitCost.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Supplier:          req.Supplier,
		SupplierRUC:       req.SupplierRUC,
		InvoiceNumber:     req.InvoiceNumber,
		DocumentType:      req.DocumentType,
		Notes:             req.Notes,
		Status:            model.PurchaseReceived,
		PurchaseDate:      s.now(),
		UserID:            userID,
	}
	if req.PurchaseDate != nil {
		p.PurchaseDate = *req.PurchaseDate
	}

	var change StockChange
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		if err := s.purchases.CreateTx(tx, p); err != nil {
			return err
		}
		c, err := s.stock.Release(ctx, tx, productID, p.Quantity, StockRef{
			Type:          model.StockMovePurchase,
			ReferenceType: "purchase",
			ReferenceID:   &p.ID,
			UserID:        userID,
			Reason:        "Compra " + orDefault(p.InvoiceNumber, p.ID.String()),
		})
		if err != nil {
			return err
		}
		change = c
		if sessionID == nil || !p.TotalCost.IsPositive() {
			return nil
		}
		return s.cash.AppendMovementTx(ctx, tx, *sessionID, &model.CashMovement{
			Type:          model.CashMovePurchase,
			Amount:        p.TotalCost,
			Description:   "Compra a " + orDefault(p.Supplier, "proveedor"),
			ReferenceID:   &p.ID,
			ReferenceType: "purchase",
			UserID:        userID,
			DocumentType:  p.DocumentType,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("purchase_id", p.ID.String()).Int("quantity", p.Quantity).Msg("purchase registered")
	s.events.Publish(ctx, change.Event())
	return purchaseToResponse(p, change.NewStock), nil
}

func (s *purchaseService) Cancel(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	var (
		p      *model.Purchase
		change StockChange
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.purchases.FindForUpdateTx(tx, id)
		if repository.IsNotFound(err) {
			return apierror.E(apierror.ErrNotFound, "Compra no encontrada")
		}
		if err != nil {
			return err
		}
		if p.Status != model.PurchaseReceived {
			return apierror.Ef(apierror.ErrInvalidStateTransition, "La compra no puede cancelarse en estado %s", p.Status)
		}
		change, err = s.stock.Reserve(ctx, tx, p.ProductID, p.Quantity, StockRef{
			Type:          model.StockMovePurchaseCancel,
			ReferenceType: "purchase",
			ReferenceID:   &p.ID,
			UserID:        p.UserID,
			Reason:        "Anulación de compra " + orDefault(p.InvoiceNumber, p.ID.String()),
		})
		if err != nil {
			return err
		}
		p.Status = model.PurchaseCancelled
		return s.purchases.UpdateStatusTx(tx, p.ID, p.Status)
	})
	if errors.Is(err, apierror.ErrInsufficientStock) {
		return nil, apierror.E(apierror.ErrInsufficientStock,
			"No se puede anular la compra: el stock comprado ya fue vendido")
	}
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, change.Event())
	return purchaseToResponse(p, change.NewStock), nil
}

func purchaseToResponse(p *model.Purchase, stockAfter int) *dto.PurchaseResponse {
	return &dto.PurchaseResponse{
		ID:                p.ID.String(),
		ProductID:         p.ProductID.String(),
		BusinessPartnerID: uuidString(p.BusinessPartnerID),
		Quantity:          p.Quantity,
		UnitCost:          p.UnitCost,
		TotalCost:         p.TotalCost,
		Supplier:          p.Supplier,
		SupplierRUC:       p.SupplierRUC,
		InvoiceNumber:     p.InvoiceNumber,
		DocumentType:      p.DocumentType,
		Notes:             p.Notes,
		Status:            p.Status,
		PurchaseDate:      p.PurchaseDate,
		StockAfter:        stockAfter,
	}
}
