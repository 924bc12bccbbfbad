package models

import (
	"errors"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemsTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
		want  string
	}{
		{"vide", nil, "0"},
		{"un article", []OrderItem{{Quantity: 2, Price: decimal.MustParse("150")}}, "300"},
		{"centimes", []OrderItem{
			{Quantity: 3, Price: decimal.MustParse("19.99")},
			{Quantity: 1, Price: decimal.MustParse("0.03")},
		}, "60.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ItemsTotal(tt.items)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(decimal.MustParse(tt.want)), "got %s", got)
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
}

func TestOrderTimestamp(t *testing.T) {
	in := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("IST", 5*3600+1800))
	got := OrderTimestamp(in)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123000000, got.Nanosecond())
	assert.True(t, got.Equal(in.Truncate(time.Millisecond)))
}

func TestCreateOrderInput_Validate(t *testing.T) {
	item := OrderItem{ProductID: "p1", Quantity: 1, Price: decimal.MustParse("10")}

	tests := []struct {
		name    string
		in      CreateOrderInput
		wantErr bool
	}{
		{"valide", CreateOrderInput{UserEmail: "a@x.io", Items: []OrderItem{item}}, false},
		{"carte", CreateOrderInput{UserEmail: "a@x.io", Items: []OrderItem{item}, PaymentMode: PaymentModeCard}, false},
		{"sans email", CreateOrderInput{UserEmail: "  ", Items: []OrderItem{item}}, true},
		{"sans article", CreateOrderInput{UserEmail: "a@x.io"}, true},
		{"sans productId", CreateOrderInput{UserEmail: "a@x.io", Items: []OrderItem{{Quantity: 1}}}, true},
		{"quantité nulle", CreateOrderInput{UserEmail: "a@x.io", Items: []OrderItem{{ProductID: "p1"}}}, true},
		{"prix négatif", CreateOrderInput{UserEmail: "a@x.io", Items: []OrderItem{{ProductID: "p1", Quantity: 1, Price: decimal.MustParse("-1")}}}, true},
		{"mode inconnu", CreateOrderInput{UserEmail: "a@x.io", Items: []OrderItem{item}, PaymentMode: "Bitcoin"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidOrder), "err = %v", err)
		})
	}
}

func TestCheckoutRequest_Validate(t *testing.T) {
	ok := CheckoutItem{ProductID: "p1", Name: "Blé", Price: decimal.MustParse("25"), Quantity: 2}

	assert.NoError(t, CheckoutRequest{Items: []CheckoutItem{ok}}.Validate())
	assert.ErrorIs(t, CheckoutRequest{}.Validate(), ErrEmptyCheckout)
	assert.ErrorIs(t, CheckoutRequest{Items: []CheckoutItem{ok, {Name: "?", Quantity: 1}}}.Validate(), ErrMissingProductRef)
	assert.ErrorIs(t, CheckoutRequest{Items: []CheckoutItem{{ProductID: "p1", Quantity: 0}}}.Validate(), ErrEmptyCheckout)
}
