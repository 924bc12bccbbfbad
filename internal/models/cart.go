package models

import (
	"fmt"
	"strings"

	"github.com/govalues/decimal"
)

type CheckoutItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"qty"`
}

// CheckoutRequest est le corps de POST /create-checkout-session.
type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items"`
	Email           string         `json:"email"`
	CustomerName    string         `json:"customer_name"`
	CustomerAddress string         `json:"customer_address"`
}

// Validate doit passer avant tout appel à Stripe.
func (r CheckoutRequest) Validate() error {
	if len(r.Items) == 0 {
		return ErrEmptyCheckout
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w (article %d)", ErrMissingProductRef, i)
		}
		if item.Quantity <= 0 || item.Price.IsNeg() {
			return fmt.Errorf("%w: quantité ou prix invalide pour %s", ErrEmptyCheckout, item.ProductID)
		}
	}
	return nil
}
