package service_test

import (
	"context"
	"regexp"
	"testing"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/event"
	"perfumeria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestOrderCreate_ReservesStockAndSnapshotsItems(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Sauvage EDT 100ml", 5, "320.00")

	resp, err := f.orders.Create(context.Background(), nil, orderRequest(model.PaymentPaypal, line(p, 2)))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{14}-\d{3}$`), resp.OrderNumber)
	assert.Equal(t, model.OrderSourceWeb, resp.Source)
	assert.Equal(t, model.PaymentStatusPaid, resp.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Sauvage EDT 100ml", resp.Items[0].Name)
	assert.True(t, decimal.RequireFromString("320.00").Equal(resp.Items[0].Price))
	assert.Equal(t, 3, f.db.stockOf(p.ID))

	movs := f.db.movementsOf(p.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, model.StockMoveOrder, movs[0].Type)
	assert.Equal(t, -2, movs[0].Quantity)
	assert.Equal(t, 5, movs[0].PreviousStock)
	assert.Equal(t, 3, movs[0].NewStock)

	assert.Len(t, f.events.Named("order.created"), 1)
	assert.Len(t, f.events.Named("product.stock_updated"), 1)
}

func TestOrderCreate_LastUnitsThenInsufficientStock(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Light Blue", 5, "250.00")
	ctx := context.Background()

	_, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentCard, line(p, 5)))
	require.NoError(t, err)
	assert.Equal(t, 0, f.db.stockOf(p.ID))

	_, err = f.orders.Create(ctx, nil, orderRequest(model.PaymentCard, line(p, 1)))
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Stock insuficiente para Light Blue")
	assert.Equal(t, 0, f.db.stockOf(p.ID))
	assert.Len(t, f.db.orders, 1)
}

func TestOrderCreate_FailedLineRollsBackEarlierLines(t *testing.T) {
	f := newFixture()
	a := f.db.addProduct("Acqua di Gio", 3, "280.00")
	b := f.db.addProduct("Eros", 1, "300.00")

	// Each line passes pre-flight on its own; the repeated line fails inside
	// the transaction after the earlier lines were decremented.
	req := orderRequest(model.PaymentPaypal, line(a, 2), line(b, 1), line(b, 1))

	_, err := f.orders.Create(context.Background(), nil, req)
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Equal(t, 3, f.db.stockOf(a.ID))
	assert.Equal(t, 1, f.db.stockOf(b.ID))
	assert.Empty(t, f.db.stockMovements)
	assert.Empty(t, f.db.orders)
	assert.Empty(t, f.events.Events())
}

func TestOrderCreate_Validation(t *testing.T) {
	f := newFixture()
	inactive := f.db.addProduct("Descontinuado", 10, "99.00")
	inactive.IsActive = false
	f.db.products[inactive.ID] = inactive
	ctx := context.Background()

	_, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentCash, line(inactive, 1)))
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = f.orders.Create(ctx, nil, orderRequest(model.PaymentCash, dto.OrderItemRequest{ProductID: uuid.NewString(), Quantity: 1}))
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	_, err = f.orders.Create(ctx, nil, orderRequest(model.PaymentCash, dto.OrderItemRequest{ProductID: "nope", Quantity: 1}))
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Equal(t, 10, f.db.stockOf(inactive.ID))
}

func TestOrderCreate_YapeRequiresConfirmation(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Good Girl", 4, "410.00")
	ctx := context.Background()

	resp, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentYape, line(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, model.OrderSourceWeb, resp.Source)
	assert.Equal(t, model.PaymentStatusPending, resp.PaymentStatus)
	assert.True(t, resp.RequiresAdminConfirmation)

	id := uuid.MustParse(resp.ID)
	confirmed, err := f.orders.ConfirmPayment(ctx, id, "YAPE-123")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, confirmed.PaymentStatus)
	assert.False(t, confirmed.RequiresAdminConfirmation)
	assert.Equal(t, "YAPE-123", confirmed.TransactionID)

	// Confirming twice is a no-op and keeps the transaction id.
	again, err := f.orders.ConfirmPayment(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "YAPE-123", again.TransactionID)
	assert.Len(t, f.events.Named("order.payment_confirmed"), 1)
}

func TestOrderCreate_SellerSourceSavesCustomer(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("CK One", 8, "150.00")
	req := orderRequest(model.PaymentCash, line(p, 1))
	req.CustomerDocument = "45678912"
	req.CustomerPhone = "999888777"
	seller := uuid.New()

	resp, err := f.orders.Create(context.Background(), &seller, req)
	require.NoError(t, err)
	assert.Equal(t, model.OrderSourceSeller, resp.Source)
	require.Len(t, f.db.partners, 1)
	for _, partner := range f.db.partners {
		assert.Equal(t, "45678912", partner.RUC)
		assert.Equal(t, model.PartnerCustomer, partner.Type)
		assert.Equal(t, "Auto-creado desde venta #"+resp.OrderNumber, partner.Notes)
	}
	require.Len(t, f.db.customers, 1)
	for _, c := range f.db.customers {
		assert.Equal(t, seller, c.SellerID)
		assert.Equal(t, "45678912", c.Document)
	}
}

func TestOrderCreate_RejectsTerminalInitialStatus(t *testing.T) {
	for _, status := range []string{model.OrderStatusCancelled, model.OrderStatusShipped, model.OrderStatusDelivered} {
		t.Run(status, func(t *testing.T) {
			f := newFixture()
			p := f.db.addProduct("Sauvage", 4, "420.00")
			req := orderRequest(model.PaymentPaypal, line(p, 2))
			req.Status = status

			_, err := f.orders.Create(context.Background(), nil, req)
			require.ErrorIs(t, err, apierror.ErrValidation)
			var de *apierror.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "oneof", de.Fields["status"])
			assert.Equal(t, 4, f.db.stockOf(p.ID))
			assert.Empty(t, f.db.orders)
			assert.Empty(t, f.db.stockMovements)
		})
	}
}

func TestOrderCreate_AcceptsProcessingInitialStatus(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Sauvage", 4, "420.00")
	req := orderRequest(model.PaymentPaypal, line(p, 1))
	req.Status = model.OrderStatusProcessing

	resp, err := f.orders.Create(context.Background(), nil, req)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, resp.Status)
	assert.Equal(t, 3, f.db.stockOf(p.ID))
}

func TestOrderCreate_MissingTotalsRejected(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Sauvage", 4, "420.00")
	req := orderRequest(model.PaymentPaypal, line(p, 1))
	req.Subtotal = nil

	_, err := f.orders.Create(context.Background(), nil, req)
	require.ErrorIs(t, err, apierror.ErrValidation)
	assert.Equal(t, 4, f.db.stockOf(p.ID))
	assert.Empty(t, f.db.orders)
}

func TestOrderCreate_SnapshotReadsRowInsideTransaction(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Light Blue", 5, "300.00")
	// The price changes after pre-flight validation but before the line
	// is snapshotted.
	f.db.onDecrement = func(row *model.Product) {
		row.Price = decimal.RequireFromString("320.00")
		row.Name = "Light Blue Eau Intense"
	}

	resp, err := f.orders.Create(context.Background(), nil, orderRequest(model.PaymentPaypal, line(p, 1)))
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "320.00", resp.Items[0].Price.StringFixed(2))
	assert.Equal(t, "Light Blue Eau Intense", resp.Items[0].Name)
}

func TestOrderUpdateStatus_PaidClearsAdminConfirmation(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Good Girl", 3, "390.00")
	ctx := context.Background()

	resp, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentYape, line(p, 1)))
	require.NoError(t, err)
	require.True(t, resp.RequiresAdminConfirmation)

	updated, err := f.orders.UpdateStatus(ctx, uuid.MustParse(resp.ID), dto.UpdateOrderRequest{
		PaymentStatus: ptr(model.PaymentStatusPaid),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
	assert.False(t, updated.RequiresAdminConfirmation)
	assert.False(t, f.db.orders[uuid.MustParse(resp.ID)].RequiresAdminConfirmation)
}

func TestOrderCreate_UsesActorWhenUserIDMissing(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Bleu", 2, "500.00")
	actor := uuid.New()

	resp, err := f.orders.Create(context.Background(), &actor, orderRequest(model.PaymentPaypal, line(p, 1)))
	require.NoError(t, err)
	require.NotNil(t, resp.UserID)
	assert.Equal(t, actor.String(), *resp.UserID)
}

func TestOrderCancel_RestoresStockOnce(t *testing.T) {
	f := newFixture()
	a := f.db.addProduct("Invictus", 6, "260.00")
	b := f.db.addProduct("Olympea", 4, "270.00")
	ctx := context.Background()

	resp, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentPaypal, line(a, 2), line(b, 3)))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	cancelled, err := f.orders.Cancel(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "Cancelado por usuario", cancelled.AdminNotes)
	assert.Equal(t, 6, f.db.stockOf(a.ID))
	assert.Equal(t, 4, f.db.stockOf(b.ID))

	_, err = f.orders.Cancel(ctx, id, "otra vez")
	assert.ErrorIs(t, err, apierror.ErrInvalidStateTransition)
	assert.Equal(t, 6, f.db.stockOf(a.ID))
	assert.Len(t, f.db.movementsOf(a.ID), 2)

	changed := f.events.Named("order.status_changed")
	require.Len(t, changed, 1)
	ev := changed[0].(event.OrderStatusChanged)
	assert.Equal(t, model.OrderStatusPending, ev.From)
	assert.Equal(t, model.OrderStatusCancelled, ev.To)
}

func TestOrderCancel_SkipsDeletedProducts(t *testing.T) {
	f := newFixture()
	gone := f.db.addProduct("Borrado", 3, "10.00")
	kept := f.db.addProduct("Vigente", 3, "10.00")
	ctx := context.Background()

	resp, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentPaypal, line(gone, 1), line(kept, 1)))
	require.NoError(t, err)
	delete(f.db.products, gone.ID)

	_, err = f.orders.Cancel(ctx, uuid.MustParse(resp.ID), "reembolso")
	require.NoError(t, err)
	assert.Equal(t, 3, f.db.stockOf(kept.ID))
}

func TestOrderUpdateStatus_AgencyShipmentNeedsTracking(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Scandal", 3, "380.00")
	ctx := context.Background()

	req := orderRequest(model.PaymentPaypal, line(p, 1))
	req.DeliveryType = model.DeliveryAgency
	req.AgencyType = "shalom"
	resp, err := f.orders.Create(ctx, nil, req)
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.orders.UpdateStatus(ctx, id, dto.UpdateOrderRequest{
		Status:         ptr(model.OrderStatusShipped),
		TrackingNumber: ptr("TRK-1"),
	})
	require.ErrorIs(t, err, apierror.ErrValidation)
	var de *apierror.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "required", de.Fields["tracking_order_number"])
	assert.Equal(t, model.OrderStatusPending, f.db.orders[id].Status)

	shipped, err := f.orders.UpdateStatus(ctx, id, dto.UpdateOrderRequest{
		Status:              ptr(model.OrderStatusShipped),
		TrackingNumber:      ptr("TRK-1"),
		TrackingOrderNumber: ptr("ORD-SH-9"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, shipped.Status)
	assert.NotNil(t, shipped.ShippedAt)
}

func TestOrderUpdateStatus_ShippingCostRecomputesTotal(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Chance", 3, "100.00")
	ctx := context.Background()

	req := orderRequest(model.PaymentPaypal, line(p, 1))
	req.Tax = decimal.RequireFromString("18.00")
	resp, err := f.orders.Create(ctx, nil, req)
	require.NoError(t, err)

	updated, err := f.orders.UpdateStatus(ctx, uuid.MustParse(resp.ID), dto.UpdateOrderRequest{
		ShippingCost: ptr(decimal.RequireFromString("12.50")),
	})
	require.NoError(t, err)
	assert.Equal(t, "130.50", updated.Total.StringFixed(2))
	assert.Empty(t, f.events.Named("order.status_changed"))
}

func TestOrderUpdateStatus_CancelRestoresStockAndFinalIsFrozen(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("J'adore", 5, "450.00")
	ctx := context.Background()

	resp, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentPaypal, line(p, 2)))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.orders.UpdateStatus(ctx, id, dto.UpdateOrderRequest{Status: ptr(model.OrderStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 5, f.db.stockOf(p.ID))

	_, err = f.orders.UpdateStatus(ctx, id, dto.UpdateOrderRequest{Status: ptr(model.OrderStatusProcessing)})
	assert.ErrorIs(t, err, apierror.ErrInvalidStateTransition)
}

func TestOrderCreate_OrderNumbersAreUnique(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Si", 50, "300.00")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentPaypal, line(p, 1)))
		require.NoError(t, err)
	}
	numbers := map[string]bool{}
	for _, o := range f.db.orders {
		assert.False(t, numbers[o.OrderNumber], "duplicate order number %s", o.OrderNumber)
		numbers[o.OrderNumber] = true
	}
}

func TestOrderList_Paginates(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Boss", 10, "200.00")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.orders.Create(ctx, nil, orderRequest(model.PaymentYape, line(p, 1)))
		require.NoError(t, err)
	}

	list, err := f.orders.List(ctx, dto.OrderFilter{RequiresConfirmation: ptr(true), PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, 2, list.PerPage)
	assert.Equal(t, 2, list.TotalPages)

	_, err = f.orders.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
