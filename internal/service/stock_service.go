package service

import (
	"context"
	"errors"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/event"
	"perfumeria/internal/model"
	"perfumeria/internal/repository"
	"perfumeria/internal/telemetry"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockRef describes why a stock change happened. Type is one of the
// model.StockMove* constants.
type StockRef struct {
	Type          string
	ReferenceType string
	ReferenceID   *uuid.UUID
	UserID        *uuid.UUID
	Reason        string
	Notes         string
}

// StockChange is the result of one ledger operation. Callers publish it as a
// ProductStockUpdated event once their transaction commits.
type StockChange struct {
	ProductID     uuid.UUID
	Name          string
	PreviousStock int
	NewStock      int
}

func (c StockChange) Event() event.ProductStockUpdated {
	return event.ProductStockUpdated{
		ProductID: c.ProductID,
		Name:      c.Name,
		OldStock:  c.PreviousStock,
		NewStock:  c.NewStock,
	}
}

// StockService is the single owner of the products.stock counter.
// Reserve/Release/Adjust run inside the caller's transaction and write exactly
// one StockMovement each.
type StockService interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref StockRef) (StockChange, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref StockRef) (StockChange, error)
	Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, ref StockRef) (StockChange, error)

	RegisterMovement(ctx context.Context, userID *uuid.UUID, req dto.InventoryMovementRequest) (*dto.StockMovementResponse, error)
	ListMovements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
}

type stockService struct {
	tx        repository.Transactor
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	events    event.Publisher
}

func NewStockService(
	tx repository.Transactor,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	events event.Publisher,
) StockService {
	return &stockService{tx: tx, products: products, movements: movements, events: events}
}

// ── Ledger primitives ────────────────────────────────────────────────────────

func (s *stockService) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref StockRef) (StockChange, error) {
	if qty <= 0 {
		return StockChange{}, apierror.Validation("La cantidad debe ser mayor a cero", map[string]string{"quantity": "min"})
	}
	lvl, err := s.products.DecrementStockTx(tx, productID, qty)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return StockChange{}, s.explainRejection(ctx, tx, productID, qty, ref.Type)
	}
	if err != nil {
		return StockChange{}, err
	}
	return s.record(tx, productID, -qty, lvl, ref)
}

func (s *stockService) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref StockRef) (StockChange, error) {
	if qty <= 0 {
		return StockChange{}, apierror.Validation("La cantidad debe ser mayor a cero", map[string]string{"quantity": "min"})
	}
	lvl, err := s.products.IncrementStockTx(tx, productID, qty)
	if repository.IsNotFound(err) {
		return StockChange{}, apierror.Ef(apierror.ErrNotFound, "Producto %s no encontrado", productID)
	}
	if err != nil {
		return StockChange{}, err
	}
	return s.record(tx, productID, qty, lvl, ref)
}

func (s *stockService) Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, ref StockRef) (StockChange, error) {
	switch {
	case delta < 0:
		return s.Reserve(ctx, tx, productID, -delta, ref)
	case delta > 0:
		return s.Release(ctx, tx, productID, delta, ref)
	default:
		return StockChange{}, apierror.Validation("La cantidad debe ser distinta de cero", map[string]string{"quantity": "ne"})
	}
}

// explainRejection turns a failed conditional decrement into NotFound or
// InsufficientStock.
func (s *stockService) explainRejection(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, moveType string) error {
	p, err := s.products.FindByIDTx(tx, productID)
	if repository.IsNotFound(err) {
		return apierror.Ef(apierror.ErrNotFound, "Producto %s no encontrado", productID)
	}
	if err != nil {
		return err
	}
	telemetry.StockRejected(ctx, moveType)
	return apierror.Ef(apierror.ErrInsufficientStock,
		"Stock insuficiente para %s. Disponible: %d, solicitado: %d", p.Name, p.Stock, qty)
}

func (s *stockService) record(tx *gorm.DB, productID uuid.UUID, signed int, lvl repository.StockLevel, ref StockRef) (StockChange, error) {
	mov := &model.StockMovement{
		ProductID:     productID,
		Type:          ref.Type,
		Quantity:      signed,
		PreviousStock: lvl.Stock - signed,
		NewStock:      lvl.Stock,
		Reason:        ref.Reason,
		Notes:         ref.Notes,
		ReferenceType: ref.ReferenceType,
		ReferenceID:   ref.ReferenceID,
		UserID:        ref.UserID,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return StockChange{}, err
	}
	return StockChange{
		ProductID:     productID,
		Name:          lvl.Name,
		PreviousStock: mov.PreviousStock,
		NewStock:      mov.NewStock,
	}, nil
}

// ── Manual inventory movements ───────────────────────────────────────────────
// "ingreso" adds units, "retiro" removes them. A retiro that would leave the
// stock negative is a validation error (422), not a stock conflict.

func (s *stockService) RegisterMovement(ctx context.Context, userID *uuid.UUID, req dto.InventoryMovementRequest) (*dto.StockMovementResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("product_id inválido", map[string]string{"product_id": "uuid"})
	}

	ref := StockRef{Type: model.StockMoveInventoryIn, UserID: userID, Reason: req.Reason, Notes: req.Notes}
	delta := req.Quantity
	if req.Type == "retiro" {
		ref.Type = model.StockMoveInventoryOut
		delta = -req.Quantity
	}

	var change StockChange
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		c, err := s.Adjust(ctx, tx, productID, delta, ref)
		if err != nil {
			return err
		}
		change = c
		return nil
	})
	if errors.Is(err, apierror.ErrInsufficientStock) {
		return nil, apierror.Validation(err.Error(), map[string]string{"quantity": "stock"})
	}
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, change.Event())

	return &dto.StockMovementResponse{
		ProductID:     productID.String(),
		ProductName:   change.Name,
		Type:          ref.Type,
		Quantity:      delta,
		PreviousStock: change.PreviousStock,
		NewStock:      change.NewStock,
		Reason:        req.Reason,
		Notes:         req.Notes,
		UserID:        uuidString(userID),
	}, nil
}

func (s *stockService) ListMovements(ctx context.Context, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	f := repository.StockMovementFilter{Type: filter.Type, Page: filter.Page, Limit: filter.Limit}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, apierror.Validation("product_id inválido", map[string]string{"product_id": "uuid"})
		}
		f.ProductID = &pid
	}
	movs, total, err := s.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}

	page, limit := pageOrDefault(filter.Page, filter.Limit, 50, 500)
	out := &dto.StockMovementListResponse{
		Data:  make([]dto.StockMovementResponse, 0, len(movs)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range movs {
		out.Data = append(out.Data, stockMovementToResponse(&movs[i]))
	}
	return out, nil
}

func (s *stockService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "Producto no encontrado")
	}
	if err != nil {
		return nil, err
	}
	return &dto.ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Brand:       p.Brand,
		Image:       p.Image,
		IsActive:    p.IsActive,
	}, nil
}

func stockMovementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	r := dto.StockMovementResponse{
		ID:            m.ID.String(),
		ProductID:     m.ProductID.String(),
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		Notes:         m.Notes,
		ReferenceType: m.ReferenceType,
		ReferenceID:   uuidString(m.ReferenceID),
		UserID:        uuidString(m.UserID),
		CreatedAt:     m.CreatedAt,
	}
	if m.Product != nil {
		r.ProductName = m.Product.Name
	}
	return r
}
