package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/event"
	"perfumeria/internal/model"
	"perfumeria/internal/repository"
	"perfumeria/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	defaultCancelReason  = "Cancelado por usuario"
	orderNumberAttempts  = 5
	orderNumberTimestamp = "20060102150405"
)

type OrderService interface {
	// Create reserves stock for every line and persists the order in one
	// transaction. actorID is used when the request carries no user_id.
	Create(ctx context.Context, actorID *uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID, transactionID string) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*dto.OrderResponse, error)
}

type orderService struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	products repository.ProductRepository
	stock    StockService
	partners PartnerService
	events   event.Publisher
	now      func() time.Time
}

func NewOrderService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	stock StockService,
	partners PartnerService,
	events event.Publisher,
) OrderService {
	return &orderService{
		tx:       tx,
		orders:   orders,
		products: products,
		stock:    stock,
		partners: partners,
		events:   events,
		now:      time.Now,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────
//   1. Pre-flight (no writes): every product exists, is active and has stock
//   2. Generate a unique order number
//   3. BEGIN TX: reserve each line, snapshot the products, insert the order
//   4. COMMIT
//   5. Publish OrderCreated + ProductStockUpdated, save seller customers

type resolvedLine struct {
	product  *model.Product
	quantity int
}

func (s *orderService) Create(ctx context.Context, actorID *uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	userID, err := parseOptionalUUID(req.UserID)
	if err != nil {
		return nil, apierror.Validation("user_id inválido", map[string]string{"user_id": "uuid"})
	}
	if req.Subtotal == nil || req.Total == nil {
		return nil, apierror.Validation("subtotal y total son obligatorios",
			map[string]string{"subtotal": "required", "total": "required"})
	}
	// A new order holds reserved stock, so it may not start in a state
	// that never releases or consumes it.
	switch req.Status {
	case "", model.OrderStatusPending, model.OrderStatusProcessing:
	default:
		return nil, apierror.Validation("Estado inicial inválido", map[string]string{"status": "oneof"})
	}

	lines := make([]resolvedLine, 0, len(req.Items))
	for i, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apierror.Validation("Producto inválido", map[string]string{fmt.Sprintf("items[%d].id", i): "uuid"})
		}
		p, err := s.products.FindByID(ctx, pid)
		if repository.IsNotFound(err) {
			return nil, apierror.Ef(apierror.ErrNotFound, "Producto no encontrado: %s", item.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, apierror.Validation(fmt.Sprintf("El producto %s no está disponible", p.Name),
				map[string]string{fmt.Sprintf("items[%d].id", i): "inactive"})
		}
		if p.Stock < item.Quantity {
			telemetry.StockRejected(ctx, model.StockMoveOrder)
			return nil, apierror.Ef(apierror.ErrInsufficientStock,
				"Stock insuficiente para %s. Disponible: %d", p.Name, p.Stock)
		}
		lines = append(lines, resolvedLine{product: p, quantity: item.Quantity})
	}

	number, err := s.nextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:                        uuid.New(),
		OrderNumber:               number,
		UserID:                    firstNonNil(userID, actorID),
		Source:                    resolveSource(req.Source, req.PaymentMethod),
		CustomerName:              req.CustomerName,
		CustomerEmail:             req.CustomerEmail,
		CustomerPhone:             req.CustomerPhone,
		CustomerDocument:          req.CustomerDocument,
		DeliveryType:              req.DeliveryType,
		ShippingAddress:           req.ShippingAddress,
		ShippingDistrict:          req.ShippingDistrict,
		ShippingReference:         req.ShippingReference,
		AgencyType:                req.AgencyType,
		AgencyID:                  req.AgencyID,
		AgencyName:                req.AgencyName,
		AgencyAddress:             req.AgencyAddress,
		Subtotal:                  *req.Subtotal,
		Tax:                       req.Tax,
		ShippingCost:              req.ShippingCost,
		Total:                     *req.Total,
		PaymentMethod:             req.PaymentMethod,
		TransactionID:             req.TransactionID,
		ApprovalCode:              req.ApprovalCode,
		PaymentStatus:             resolvePaymentStatus(req.PaymentStatus, req.PaymentMethod),
		Status:                    orDefault(req.Status, model.OrderStatusPending),
		Notes:                     req.Notes,
		RequiresAdminConfirmation: req.PaymentMethod == model.PaymentYape,
		DocumentType:              req.DocumentType,
	}

	var changes []StockChange
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		changes = changes[:0]
		order.Items = make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			change, err := s.stock.Reserve(ctx, tx, l.product.ID, l.quantity, StockRef{
				Type:          model.StockMoveOrder,
				ReferenceType: "order",
				ReferenceID:   &order.ID,
				UserID:        order.UserID,
				Reason:        "Pedido " + order.OrderNumber,
			})
			if err != nil {
				return err
			}
			changes = append(changes, change)
			// Snapshot the row as read inside this transaction, not the
			// pre-flight read.
			current, err := s.products.FindByIDTx(tx, l.product.ID)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, snapshotItem(current, l.quantity))
		}
		return s.orders.CreateTx(tx, order)
	})
	if err != nil {
		return nil, err
	}

	telemetry.OrderCreated(ctx, order.Source, order.PaymentMethod)
	log.Info().Str("order_number", order.OrderNumber).Str("source", order.Source).Msg("order created")

	for _, c := range changes {
		s.events.Publish(ctx, c.Event())
	}
	s.events.Publish(ctx, event.OrderCreated{
		OrderID:                   order.ID,
		OrderNumber:               order.OrderNumber,
		UserID:                    order.UserID,
		Source:                    order.Source,
		CustomerName:              order.CustomerName,
		PaymentMethod:             order.PaymentMethod,
		PaymentStatus:             order.PaymentStatus,
		Status:                    order.Status,
		Total:                     order.Total,
		ItemCount:                 len(order.Items),
		RequiresAdminConfirmation: order.RequiresAdminConfirmation,
		CreatedAt:                 s.now(),
	})

	if order.Source == model.OrderSourceSeller {
		s.partners.SaveCustomerFromOrder(ctx, order)
	}

	return orderToResponse(order), nil
}

// nextOrderNumber returns ORD-<YYYYMMDDHHMMSS>-<000..999> not used yet.
func (s *orderService) nextOrderNumber(ctx context.Context) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		n := fmt.Sprintf("ORD-%s-%03d", s.now().Format(orderNumberTimestamp), rand.IntN(1000))
		exists, err := s.orders.NumberExists(ctx, n)
		if err != nil {
			return "", err
		}
		if !exists {
			return n, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", orderNumberAttempts)
}

// resolveSource: counter payment methods imply a seller order.
func resolveSource(requested, method string) string {
	if requested != "" {
		return requested
	}
	switch method {
	case model.PaymentCash, model.PaymentCard, model.PaymentTransfer:
		return model.OrderSourceSeller
	default:
		return model.OrderSourceWeb
	}
}

// resolvePaymentStatus: Yape transfers wait for an admin to confirm them.
func resolvePaymentStatus(requested, method string) string {
	if requested != "" {
		return requested
	}
	if method == model.PaymentYape {
		return model.PaymentStatusPending
	}
	return model.PaymentStatusPaid
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func snapshotItem(p *model.Product, qty int) model.OrderItem {
	return model.OrderItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    qty,
		Image:       p.Image,
		Brand:       p.Brand,
		Category:    p.Category,
	}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "Pedido no encontrado")
	}
	if err != nil {
		return nil, err
	}
	return orderToResponse(o), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page, perPage := pageOrDefault(filter.Page, filter.PerPage, 15, 100)
	resp := &dto.OrderListResponse{
		Data:       make([]dto.OrderResponse, 0, len(orders)),
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	}
	for i := range orders {
		resp.Data = append(resp.Data, *orderToResponse(&orders[i]))
	}
	return resp, nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────
// Only pending/processing orders can be cancelled. Every line's quantity is
// returned to stock; lines whose product no longer exists are skipped.

func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*dto.OrderResponse, error) {
	var (
		order   *model.Order
		from    string
		changes []StockChange
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		o, err := s.lockOrder(tx, id)
		if err != nil {
			return err
		}
		from = o.Status
		changes, err = s.cancelTx(ctx, tx, o, reason)
		order = o
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishCancellation(ctx, order, from, changes)
	return orderToResponse(order), nil
}

func (s *orderService) lockOrder(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	o, err := s.orders.FindForUpdateTx(tx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "Pedido no encontrado")
	}
	return o, err
}

func (s *orderService) cancelTx(ctx context.Context, tx *gorm.DB, o *model.Order, reason string) ([]StockChange, error) {
	if !o.CanBeCancelled() {
		return nil, apierror.Ef(apierror.ErrInvalidStateTransition,
			"El pedido no puede ser cancelado en estado %s", o.Status)
	}

	changes := make([]StockChange, 0, len(o.Items))
	for _, item := range o.Items {
		change, err := s.stock.Release(ctx, tx, item.ProductID, item.Quantity, StockRef{
			Type:          model.StockMoveOrderCancel,
			ReferenceType: "order",
			ReferenceID:   &o.ID,
			UserID:        o.UserID,
			Reason:        "Cancelación de pedido " + o.OrderNumber,
		})
		if isNotFoundErr(err) {
			log.Warn().Str("order_number", o.OrderNumber).Str("product_id", item.ProductID.String()).
				Msg("product no longer exists, stock not restored")
			continue
		}
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	o.Status = model.OrderStatusCancelled
	o.AdminNotes = orDefault(reason, defaultCancelReason)
	if err := s.orders.UpdateTx(tx, o); err != nil {
		return nil, err
	}
	return changes, nil
}

func (s *orderService) publishCancellation(ctx context.Context, o *model.Order, from string, changes []StockChange) {
	telemetry.OrderCancelled(ctx)
	for _, c := range changes {
		s.events.Publish(ctx, c.Event())
	}
	s.events.Publish(ctx, s.statusChanged(o, from))
}

// ── ConfirmPayment ────────────────────────────────────────────────────────────
// Idempotent: confirming an already confirmed payment changes nothing and
// publishes nothing.

func (s *orderService) ConfirmPayment(ctx context.Context, id uuid.UUID, transactionID string) (*dto.OrderResponse, error) {
	var (
		order   *model.Order
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		o, err := s.lockOrder(tx, id)
		if err != nil {
			return err
		}
		order = o
		if o.PaymentStatus == model.PaymentStatusPaid && !o.RequiresAdminConfirmation &&
			(transactionID == "" || transactionID == o.TransactionID) {
			return nil
		}
		o.PaymentStatus = model.PaymentStatusPaid
		o.RequiresAdminConfirmation = false
		if transactionID != "" {
			o.TransactionID = transactionID
		}
		changed = true
		return s.orders.UpdateTx(tx, o)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.events.Publish(ctx, event.PaymentConfirmed{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        order.UserID,
			PaymentMethod: order.PaymentMethod,
			TransactionID: order.TransactionID,
			Total:         order.Total,
			ConfirmedAt:   s.now(),
		})
	}
	return orderToResponse(order), nil
}

// ── UpdateStatus ──────────────────────────────────────────────────────────────
// Admin update. Moving to cancelled goes through the cancel path so stock is
// always restored; delivered and cancelled orders cannot change status.

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	var (
		order     *model.Order
		from      string
		cancelled bool
		changes   []StockChange
	)
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		o, err := s.lockOrder(tx, id)
		if err != nil {
			return err
		}
		order = o
		from = o.Status

		to := o.Status
		if req.Status != nil {
			to = *req.Status
		}
		if to != from && o.IsFinal() {
			return apierror.Ef(apierror.ErrInvalidStateTransition,
				"No se puede cambiar el estado de un pedido %s", from)
		}

		if to == model.OrderStatusCancelled && from != model.OrderStatusCancelled {
			reason := ""
			if req.AdminNotes != nil {
				reason = *req.AdminNotes
			}
			cancelled = true
			changes, err = s.cancelTx(ctx, tx, o, reason)
			return err
		}

		if req.TrackingNumber != nil {
			o.TrackingNumber = *req.TrackingNumber
		}
		if req.TrackingOrderNumber != nil {
			o.TrackingOrderNumber = *req.TrackingOrderNumber
		}
		if to == model.OrderStatusShipped && o.DeliveryType == model.DeliveryAgency {
			if fields := missingTracking(o); len(fields) > 0 {
				return apierror.Validation("Para envíos por agencia se requiere el número de tracking y el número de orden", fields)
			}
		}

		if req.PaymentStatus != nil {
			o.PaymentStatus = *req.PaymentStatus
			if o.PaymentStatus == model.PaymentStatusPaid {
				o.RequiresAdminConfirmation = false
			}
		}
		if req.AdminNotes != nil {
			o.AdminNotes = *req.AdminNotes
		}
		if req.ShippingCost != nil {
			if req.ShippingCost.IsNegative() {
				return apierror.Validation("El costo de envío no puede ser negativo", map[string]string{"shipping_cost": "min"})
			}
			o.ShippingCost = *req.ShippingCost
			o.Total = o.Subtotal.Add(o.Tax).Add(o.ShippingCost)
		}
		if to == model.OrderStatusShipped && o.ShippedAt == nil {
			now := s.now()
			o.ShippedAt = &now
		}
		o.Status = to
		return s.orders.UpdateTx(tx, o)
	})
	if err != nil {
		return nil, err
	}

	switch {
	case cancelled:
		s.publishCancellation(ctx, order, from, changes)
	case order.Status != from:
		s.events.Publish(ctx, s.statusChanged(order, from))
	}
	return orderToResponse(order), nil
}

func missingTracking(o *model.Order) map[string]string {
	fields := map[string]string{}
	if o.TrackingNumber == "" {
		fields["tracking_number"] = "required"
	}
	if o.TrackingOrderNumber == "" {
		fields["tracking_order_number"] = "required"
	}
	return fields
}

func (s *orderService) statusChanged(o *model.Order, from string) event.OrderStatusChanged {
	return event.OrderStatusChanged{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		CustomerName:   o.CustomerName,
		From:           from,
		To:             o.Status,
		TrackingNumber: o.TrackingNumber,
		ChangedAt:      s.now(),
	}
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   it.ProductID.String(),
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Image:       it.Image,
			Brand:       it.Brand,
			Category:    it.Category,
		})
	}
	return &dto.OrderResponse{
		ID:                        o.ID.String(),
		OrderNumber:               o.OrderNumber,
		UserID:                    uuidString(o.UserID),
		Source:                    o.Source,
		CustomerName:              o.CustomerName,
		CustomerEmail:             o.CustomerEmail,
		CustomerPhone:             o.CustomerPhone,
		CustomerDocument:          o.CustomerDocument,
		DeliveryType:              o.DeliveryType,
		ShippingAddress:           o.ShippingAddress,
		ShippingDistrict:          o.ShippingDistrict,
		ShippingReference:         o.ShippingReference,
		AgencyType:                o.AgencyType,
		AgencyID:                  o.AgencyID,
		AgencyName:                o.AgencyName,
		AgencyAddress:             o.AgencyAddress,
		Items:                     items,
		Subtotal:                  o.Subtotal,
		Tax:                       o.Tax,
		ShippingCost:              o.ShippingCost,
		Total:                     o.Total,
		PaymentMethod:             o.PaymentMethod,
		TransactionID:             o.TransactionID,
		ApprovalCode:              o.ApprovalCode,
		PaymentStatus:             o.PaymentStatus,
		Status:                    o.Status,
		Notes:                     o.Notes,
		AdminNotes:                o.AdminNotes,
		TrackingNumber:            o.TrackingNumber,
		TrackingOrderNumber:       o.TrackingOrderNumber,
		ShippedAt:                 o.ShippedAt,
		RequiresAdminConfirmation: o.RequiresAdminConfirmation,
		DocumentType:              o.DocumentType,
		CreatedAt:                 o.CreatedAt,
		UpdatedAt:                 o.UpdatedAt,
	}
}
