package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"agriconnect_back_end/internal/config"
	"agriconnect_back_end/internal/models"

	"github.com/govalues/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"go.uber.org/zap"
)

// StripeGateway regroupe les appels sortants vers l'API Stripe Checkout.
type StripeGateway struct {
	sessions   *session.Client
	currency   string
	successURL string
	cancelURL  string
	log        *zap.Logger
}

func NewStripeGateway(cfg *config.Stripe, log *zap.Logger) *StripeGateway {
	return &StripeGateway{
		sessions: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.SecretKey,
		},
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		log:        log,
	}
}

// CreateCheckoutSession ouvre une session de paiement hébergée et renvoie son id.
// L'identifiant produit voyage dans les métadonnées produit, l'identité de
// l'acheteur dans celles de la session : le webhook s'appuie sur les deux.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	params, err := g.checkoutParams(req)
	if err != nil {
		return "", err
	}
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("création de la session Stripe: %w", err)
	}

	g.log.Info("💳 Session Checkout créée",
		zap.String("session_id", s.ID),
		zap.String("email", req.Email),
		zap.Int("items", len(req.Items)))
	return s.ID, nil
}

func (g *StripeGateway) checkoutParams(req models.CheckoutRequest) (*stripe.CheckoutSessionParams, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		unitAmount, err := ToMinorUnits(item.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: prix de %s: %v", models.ErrEmptyCheckout, item.ProductID, err)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
					Metadata: map[string]string{
						"productId": item.ProductID,
					},
				},
				UnitAmount: stripe.Int64(unitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		Metadata: map[string]string{
			"userEmail":        req.Email,
			"customer_name":    req.CustomerName,
			"customer_address": req.CustomerAddress,
		},
		LineItems:  lineItems,
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	return params, nil
}

// ListLineItems relit les articles d'une session, produit développé.
// Un article sans productId en métadonnées est renvoyé avec ProductRef vide.
func (g *StripeGateway) ListLineItems(ctx context.Context, sessionID string) ([]models.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.AddExpand("data.price.product")
	params.Context = ctx

	items := make([]models.LineItem, 0)
	iter := g.sessions.ListLineItems(params)
	for iter.Next() {
		item, err := LineItemFromStripe(iter.LineItem())
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return items, fmt.Errorf("articles de la session %s: %w", sessionID, err)
	}
	return items, nil
}

// CompletedSession relit une session payée et la présente comme un événement
// checkout.session.completed, pour la réconciliation hors webhook.
func (g *StripeGateway) CompletedSession(ctx context.Context, sessionID string) (*models.PaymentEvent, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("lecture de la session %s: %w", sessionID, err)
	}
	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, fmt.Errorf("session %s non payée (%s)", sessionID, s.PaymentStatus)
	}
	return EventFromSession("", s)
}

// LineItemFromStripe convertit un article Stripe (prix en unités mineures).
func LineItemFromStripe(li *stripe.LineItem) (models.LineItem, error) {
	if li == nil {
		return models.LineItem{}, errors.New("article Stripe vide")
	}
	item := models.LineItem{Quantity: li.Quantity}
	if li.Price == nil {
		return item, nil
	}

	price, err := FromMinorUnits(li.Price.UnitAmount)
	if err != nil {
		return item, err
	}
	item.UnitPriceAtSale = price

	if p := li.Price.Product; p != nil {
		item.Name = p.Name
		item.ProductRef = p.Metadata["productId"]
	}
	return item, nil
}

// FromMinorUnits convertit un montant Stripe (centimes) en décimal à 2 chiffres.
func FromMinorUnits(amount int64) (decimal.Decimal, error) {
	return decimal.New(amount, 2)
}

// ToMinorUnits arrondit au centime puis renvoie le montant en unités mineures.
func ToMinorUnits(d decimal.Decimal) (int64, error) {
	if d.IsNeg() {
		return 0, fmt.Errorf("montant négatif %s", d)
	}
	cents := d.Round(2).Pad(2)
	if cents.Scale() != 2 {
		return 0, fmt.Errorf("montant %s hors précision", d)
	}
	if cents.Coef() > math.MaxInt64 {
		return 0, fmt.Errorf("montant %s trop élevé", d)
	}
	return int64(cents.Coef()), nil
}
