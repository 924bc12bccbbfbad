package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"agriconnect_back_end/internal/models"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

const (
	defaultCustomerName    = "Guest"
	defaultCustomerAddress = "No address provided"
)

// WebhookVerifier authentifie les notifications Stripe et les convertit en
// PaymentEvent. Aucun état : un seul verifier sert toutes les requêtes.
type WebhookVerifier struct{}

func NewWebhookVerifier() *WebhookVerifier {
	return &WebhookVerifier{}
}

// Verify contrôle la signature sur les octets bruts du corps, tels que reçus.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader, secret string) (*models.PaymentEvent, error) {
	if secret == "" {
		return nil, models.ErrMissingWebhookSecret
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrVerification, err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return &models.PaymentEvent{
			Type:    models.PaymentEventUnhandled,
			RawType: string(event.Type),
			EventID: event.ID,
		}, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: événement %s sans données", models.ErrVerification, event.ID)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: session illisible: %v", models.ErrVerification, err)
	}
	return EventFromSession(event.ID, &cs)
}

// EventFromSession extrait d'une session Checkout tout ce que la réconciliation
// utilise. L'email vient des métadonnées, puis des coordonnées saisies chez Stripe.
func EventFromSession(eventID string, cs *stripe.CheckoutSession) (*models.PaymentEvent, error) {
	total, err := FromMinorUnits(cs.AmountTotal)
	if err != nil {
		return nil, fmt.Errorf("%w: montant de la session %s: %v", models.ErrVerification, cs.ID, err)
	}

	ev := &models.PaymentEvent{
		Type:            models.PaymentEventCheckoutCompleted,
		RawType:         string(stripe.EventTypeCheckoutSessionCompleted),
		EventID:         eventID,
		SessionID:       cs.ID,
		ReportedTotal:   total,
		Currency:        string(cs.Currency),
		BuyerEmail:      buyerEmail(cs),
		BuyerName:       metadataOr(cs.Metadata, "customer_name", defaultCustomerName),
		ShippingAddress: metadataOr(cs.Metadata, "customer_address", defaultCustomerAddress),
	}

	if cs.LineItems != nil && len(cs.LineItems.Data) > 0 {
		ev.LineItems = make([]models.LineItem, 0, len(cs.LineItems.Data))
		for _, li := range cs.LineItems.Data {
			item, err := LineItemFromStripe(li)
			if err != nil {
				return nil, fmt.Errorf("%w: article de la session %s: %v", models.ErrVerification, cs.ID, err)
			}
			ev.LineItems = append(ev.LineItems, item)
		}
	}
	return ev, nil
}

func buyerEmail(cs *stripe.CheckoutSession) string {
	if email := strings.TrimSpace(cs.Metadata["userEmail"]); email != "" {
		return email
	}
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		return cs.CustomerDetails.Email
	}
	return cs.CustomerEmail
}

func metadataOr(metadata map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(metadata[key]); v != "" {
		return v
	}
	return fallback
}
