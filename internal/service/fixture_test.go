package service_test

import (
	"perfumeria/internal/dto"
	"perfumeria/internal/event"
	"perfumeria/internal/model"
	"perfumeria/internal/service"

	"github.com/shopspring/decimal"
)

type fixture struct {
	db     *memDB
	events *event.Recorder

	stock     service.StockService
	orders    service.OrderService
	cash      service.CashService
	purchases service.PurchaseService
	sales     service.SaleService
	partners  service.PartnerService
}

func newFixture() *fixture {
	db := newMemDB()
	rec := &event.Recorder{}
	tx := &memTx{db: db}
	products := &stubProductRepo{db: db}

	stock := service.NewStockService(tx, products, &stubStockMovementRepo{db: db}, rec)
	partners := service.NewPartnerService(&stubPartnerRepo{db: db})
	cash := service.NewCashService(tx, &stubCashRepo{db: db}, rec)

	return &fixture{
		db:        db,
		events:    rec,
		stock:     stock,
		orders:    service.NewOrderService(tx, &stubOrderRepo{db: db}, products, stock, partners, rec),
		cash:      cash,
		purchases: service.NewPurchaseService(tx, &stubPurchaseRepo{db: db}, stock, cash, rec),
		sales:     service.NewSaleService(tx, &stubSaleRepo{db: db}, products, stock, cash, rec),
		partners:  partners,
	}
}

func orderRequest(method string, lines ...dto.OrderItemRequest) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		CustomerName:  "Ana Torres",
		CustomerEmail: "ana@example.com",
		DeliveryType:  model.DeliveryHome,
		Items:         lines,
		Subtotal:      ptr(decimal.RequireFromString("100.00")),
		Total:         ptr(decimal.RequireFromString("100.00")),
		PaymentMethod: method,
	}
}

func line(p model.Product, qty int) dto.OrderItemRequest {
	return dto.OrderItemRequest{ProductID: p.ID.String(), Quantity: qty}
}
