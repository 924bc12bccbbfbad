package payement

import (
	"context"
	"errors"
	"io"
	"net/http"

	"agriconnect_back_end/internal/handlers"
	"agriconnect_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxBodyBytes borne le corps du webhook Stripe.
const MaxBodyBytes = int64(65536)

type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader, secret string) (*models.PaymentEvent, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, ev *models.PaymentEvent) (*models.Order, error)
}

type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (string, error)
}

type Handler struct {
	handlers.Base
	verifier      WebhookVerifier
	reconciler    Reconciler
	checkout      CheckoutCreator
	webhookSecret string
}

func NewHandler(verifier WebhookVerifier, reconciler Reconciler, checkout CheckoutCreator, webhookSecret string, log *zap.Logger) *Handler {
	return &Handler{
		Base:          handlers.NewBase(log),
		verifier:      verifier,
		reconciler:    reconciler,
		checkout:      checkout,
		webhookSecret: webhookSecret,
	}
}

// StripeWebhook : POST /webhook.
// Une fois la signature validée on répond 200, même si la commande n'a pas pu
// être enregistrée : le réconciliateur a déjà loggé et alerté.
func (h *Handler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Log.Warn("❌ Lecture payload échouée", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	ev, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	switch {
	case errors.Is(err, models.ErrMissingWebhookSecret):
		h.Log.Error("❌ STRIPE_WEBHOOK_SECRET non configuré")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret not configured"})
		return
	case err != nil:
		h.Log.Warn("❌ Signature Stripe invalide", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook Error: " + err.Error()})
		return
	}

	log := h.Log.With(zap.String("event_id", ev.EventID), zap.String("event_type", ev.RawType))
	log.Info("📥 Événement Stripe reçu")

	if ev.Type != models.PaymentEventCheckoutCompleted {
		log.Info("ℹ️ Événement ignoré")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// signature validée : l'écriture va au bout même si Stripe coupe la connexion
	if _, err := h.reconciler.Reconcile(context.WithoutCancel(c.Request.Context()), ev); err != nil {
		log.Warn("⚠️ Réconciliation incomplète", zap.String("session_id", ev.SessionID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
