package service_test

import (
	"context"
	"testing"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase_RegisterAddsStockAndDebitsCash(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Chanel N°5", 1, "650.00")
	_, sessionID := openSession(t, f, "500.00")

	resp, err := f.purchases.Register(context.Background(), nil, dto.RegisterPurchaseRequest{
		ProductID:     p.ID.String(),
		CashSessionID: sessionID.String(),
		Quantity:      4,
		UnitCost:      dec("80.00"),
		Supplier:      "Distribuidora Lima",
		InvoiceNumber: "F001-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "320.00", resp.TotalCost.StringFixed(2))
	assert.Equal(t, 5, resp.StockAfter)
	assert.Equal(t, model.PurchaseReceived, resp.Status)
	assert.Equal(t, 5, f.db.stockOf(p.ID))
	assert.Equal(t, "180.00", f.db.sessions[sessionID].ExpectedAmount.StringFixed(2))

	movs := f.db.movementsOf(p.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, model.StockMovePurchase, movs[0].Type)
	assert.Equal(t, 4, movs[0].Quantity)
}

func TestPurchase_ClosedSessionRollsBackStock(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Miss Dior", 2, "520.00")
	_, sessionID := openSession(t, f, "0.00")
	_, err := f.cash.CloseSession(context.Background(), sessionID, dto.CloseSessionRequest{ClosingAmount: dec("0.00")})
	require.NoError(t, err)

	_, err = f.purchases.Register(context.Background(), nil, dto.RegisterPurchaseRequest{
		ProductID: p.ID.String(), CashSessionID: sessionID.String(), Quantity: 3, UnitCost: dec("100.00"),
	})
	assert.ErrorIs(t, err, apierror.ErrSessionClosed)
	assert.Equal(t, 2, f.db.stockOf(p.ID))
	assert.Empty(t, f.db.purchases)
}

func TestPurchase_CancelFailsWhenStockAlreadySold(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Libre", 0, "480.00")
	ctx := context.Background()

	resp, err := f.purchases.Register(ctx, nil, dto.RegisterPurchaseRequest{ProductID: p.ID.String(), Quantity: 3, UnitCost: dec("200.00")})
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, nil, orderRequest(model.PaymentPaypal, line(p, 2)))
	require.NoError(t, err)

	_, err = f.purchases.Cancel(ctx, uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Equal(t, 1, f.db.stockOf(p.ID))
	assert.Equal(t, model.PurchaseReceived, f.db.purchases[uuid.MustParse(resp.ID)].Status)
}

func TestPurchase_CancelRemovesStockOnce(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Angel", 1, "390.00")
	ctx := context.Background()

	resp, err := f.purchases.Register(ctx, nil, dto.RegisterPurchaseRequest{ProductID: p.ID.String(), Quantity: 2, UnitCost: dec("150.00")})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	cancelled, err := f.purchases.Cancel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseCancelled, cancelled.Status)
	assert.Equal(t, 1, f.db.stockOf(p.ID))

	_, err = f.purchases.Cancel(ctx, id)
	assert.ErrorIs(t, err, apierror.ErrInvalidStateTransition)
}

func TestSale_RegisterDefaultsAndCashCredit(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("212 VIP", 3, "275.00")
	_, sessionID := openSession(t, f, "100.00")

	resp, err := f.sales.Register(context.Background(), nil, dto.RegisterSaleRequest{
		ProductID:        p.ID.String(),
		CashSessionID:    sessionID.String(),
		Quantity:         2,
		PaymentMethod:    model.PaymentCash,
		CustomerName:     "Pedro",
		CustomerDocument: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Clientes Varios", resp.CustomerName)
	assert.Equal(t, "275.00", resp.UnitPrice.StringFixed(2))
	assert.Equal(t, "550.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, 1, resp.StockAfter)
	assert.Equal(t, "650.00", f.db.sessions[sessionID].ExpectedAmount.StringFixed(2))
}

func TestSale_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("Black Opium", 1, "420.00")

	_, err := f.sales.Register(context.Background(), nil, dto.RegisterSaleRequest{
		ProductID: p.ID.String(), Quantity: 2, PaymentMethod: model.PaymentCard,
	})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Empty(t, f.db.sales)
	assert.Equal(t, 1, f.db.stockOf(p.ID))
}

func TestSale_CancelRestoresStock(t *testing.T) {
	f := newFixture()
	p := f.db.addProduct("La Vie Est Belle", 4, "430.00")
	ctx := context.Background()

	resp, err := f.sales.Register(ctx, nil, dto.RegisterSaleRequest{
		ProductID: p.ID.String(), Quantity: 3, PaymentMethod: model.PaymentYape, CustomerDocument: "45678912", CustomerName: "Lucia",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lucia", resp.CustomerName)
	assert.Equal(t, 1, f.db.stockOf(p.ID))

	cancelled, err := f.sales.Cancel(ctx, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, model.SaleCancelled, cancelled.Status)
	assert.Equal(t, 4, f.db.stockOf(p.ID))

	_, err = f.sales.Cancel(ctx, uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, apierror.ErrInvalidStateTransition)
}
