package models

import "github.com/govalues/decimal"

type PaymentEventType string

const (
	PaymentEventCheckoutCompleted PaymentEventType = "checkout.session.completed"
	PaymentEventUnhandled         PaymentEventType = "unhandled"
)

// LineItem est un article tel que rapporté par Stripe au moment de la vente.
type LineItem struct {
	ProductRef      string
	Quantity        int64
	UnitPriceAtSale decimal.Decimal
	Name            string
}

// PaymentEvent est construit à chaque appel du webhook puis jeté.
// LineItems reste nil quand Stripe ne les inclut pas dans l'événement.
type PaymentEvent struct {
	Type            PaymentEventType
	RawType         string
	EventID         string
	SessionID       string
	ReportedTotal   decimal.Decimal
	Currency        string
	BuyerEmail      string
	BuyerName       string
	ShippingAddress string
	LineItems       []LineItem
}
