package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/govalues/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMode string

const (
	PaymentModeCard  PaymentMode = "Card"
	PaymentModeOther PaymentMode = "Other"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// OrderStatus est le cycle de vie logistique, indépendant du paiement.
type OrderStatus string

const (
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// IsTerminal indique si le scheduler doit laisser la commande de côté.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type OrderItem struct {
	ProductID string          `bson:"productId" json:"productId"`
	Quantity  int64           `bson:"quantity" json:"quantity"`
	Price     decimal.Decimal `bson:"price" json:"price"`
	Name      string          `bson:"name" json:"name"`
}

// Order est le document persisté dans la collection "orders".
// StripeSessionID sert de clé d'idempotence pour les commandes payées par carte.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserEmail       string             `bson:"userEmail" json:"userEmail"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     decimal.Decimal    `bson:"totalAmount" json:"totalAmount"`
	Address         string             `bson:"address" json:"address"`
	CustomerName    string             `bson:"customerName" json:"customerName"`
	PaymentMode     PaymentMode        `bson:"paymentMode" json:"paymentMode"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	Status          OrderStatus        `bson:"status" json:"status"`
	StripeSessionID string             `bson:"stripeSessionId,omitempty" json:"stripeSessionId,omitempty"`
	OrderDate       time.Time          `bson:"orderDate" json:"orderDate"`
}

// OrderTimestamp tronque à la milliseconde : c'est la précision des dates BSON,
// une commande relue doit être identique à celle renvoyée à la création.
func OrderTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ItemsTotal calcule Σ quantité × prix unitaire.
func ItemsTotal(items []OrderItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		qty, err := decimal.New(item.Quantity, 0)
		if err != nil {
			return decimal.Zero, err
		}
		line, err := item.Price.Mul(qty)
		if err != nil {
			return decimal.Zero, err
		}
		total, err = total.Add(line)
		if err != nil {
			return decimal.Zero, err
		}
	}
	return total, nil
}

// CreateOrderInput est le corps de POST /orders/create (commande hors Stripe).
type CreateOrderInput struct {
	UserEmail    string           `json:"userEmail"`
	Items        []OrderItem      `json:"items"`
	TotalAmount  *decimal.Decimal `json:"totalAmount"`
	Address      string           `json:"address"`
	CustomerName string           `json:"customerName"`
	PaymentMode  PaymentMode      `json:"paymentMode"`
}

func (in CreateOrderInput) Validate() error {
	if strings.TrimSpace(in.UserEmail) == "" {
		return fmt.Errorf("%w: userEmail requis", ErrInvalidOrder)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: au moins un article requis", ErrInvalidOrder)
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: article %d sans productId", ErrInvalidOrder, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantité invalide pour %s", ErrInvalidOrder, item.ProductID)
		}
		if item.Price.IsNeg() {
			return fmt.Errorf("%w: prix négatif pour %s", ErrInvalidOrder, item.ProductID)
		}
	}
	switch in.PaymentMode {
	case "", PaymentModeOther, PaymentModeCard:
	default:
		return fmt.Errorf("%w: paymentMode %q inconnu", ErrInvalidOrder, in.PaymentMode)
	}
	return nil
}
