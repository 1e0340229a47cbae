package service_test

import (
	"context"
	"testing"

	"perfumeria/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCustomerFromOrder_SkipsPlaceholders(t *testing.T) {
	cases := []struct {
		name, customer, document string
	}{
		{"walk-in", "Cliente en tienda", "45678912"},
		{"varios", "CLIENTES VARIOS", "45678912"},
		{"no document", "Rosa Quispe", ""},
		{"zero document", "Rosa Quispe", "00000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.partners.SaveCustomerFromOrder(context.Background(), &model.Order{
				OrderNumber:      "ORD-1",
				UserID:           ptr(uuid.New()),
				CustomerName:     tc.customer,
				CustomerDocument: tc.document,
			})
			assert.Empty(t, f.db.partners)
			assert.Empty(t, f.db.customers)
		})
	}
}

func TestSaveCustomerFromOrder_RequiresSeller(t *testing.T) {
	f := newFixture()
	f.partners.SaveCustomerFromOrder(context.Background(), &model.Order{
		OrderNumber:      "ORD-1",
		CustomerName:     "Rosa Quispe",
		CustomerDocument: "20123456789",
		CustomerPhone:    "911111111",
	})
	assert.Empty(t, f.db.partners)
	assert.Empty(t, f.db.customers)
}

func TestSaveCustomerFromOrder_FillsOnlyEmptyFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := uuid.New()

	f.partners.SaveCustomerFromOrder(ctx, &model.Order{
		OrderNumber: "ORD-1", UserID: &seller,
		CustomerName: "Rosa Quispe", CustomerDocument: "20123456789", CustomerPhone: "911111111",
	})
	f.partners.SaveCustomerFromOrder(ctx, &model.Order{
		OrderNumber: "ORD-2", UserID: &seller,
		CustomerName: "Rosa Quispe", CustomerDocument: "20123456789",
		CustomerPhone: "922222222", CustomerEmail: "rosa@example.com",
	})

	require.Len(t, f.db.partners, 1)
	for _, p := range f.db.partners {
		assert.Equal(t, "911111111", p.Phone)
		assert.Equal(t, "rosa@example.com", p.Email)
		assert.Equal(t, "Auto-creado desde venta #ORD-1", p.Notes)
	}
	require.Len(t, f.db.customers, 1)
	for _, c := range f.db.customers {
		assert.Equal(t, "911111111", c.Phone)
		assert.Equal(t, "rosa@example.com", c.Email)
	}
}

func TestSaveCustomerFromOrder_SellerDirectoryWithoutDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seller := uuid.New()
	other := uuid.New()

	// A bare name is not kept.
	f.partners.SaveCustomerFromOrder(ctx, &model.Order{OrderNumber: "ORD-1", UserID: &seller, CustomerName: "Luis Rojas"})
	assert.Empty(t, f.db.customers)

	// A phone is enough for the seller's list but not for a business partner.
	f.partners.SaveCustomerFromOrder(ctx, &model.Order{
		OrderNumber: "ORD-2", UserID: &seller, CustomerName: "Luis Rojas", CustomerPhone: "933333333",
	})
	// Matched by name and enriched in place.
	f.partners.SaveCustomerFromOrder(ctx, &model.Order{
		OrderNumber: "ORD-3", UserID: &seller, CustomerName: "Luis Rojas", CustomerDocument: "00000000",
		ShippingAddress: "Av. Arequipa 123",
	})
	// Same name under another seller is a separate entry.
	f.partners.SaveCustomerFromOrder(ctx, &model.Order{
		OrderNumber: "ORD-4", UserID: &other, CustomerName: "Luis Rojas", CustomerEmail: "luis@example.com",
	})

	assert.Empty(t, f.db.partners)
	mine, err := f.partners.ListSellerCustomers(ctx, seller)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "933333333", mine[0].Phone)
	assert.Equal(t, "Av. Arequipa 123", mine[0].Address)
	assert.Empty(t, mine[0].Document)

	theirs, err := f.partners.ListSellerCustomers(ctx, other)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "luis@example.com", theirs[0].Email)
}
