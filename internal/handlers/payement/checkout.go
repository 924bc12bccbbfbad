package payement

import (
	"errors"
	"net/http"

	"agriconnect_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateCheckoutSession : POST /create-checkout-session.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.Log.Warn("⚠️ Panier refusé", zap.String("email", req.Email), zap.Error(err))
		h.HandleError(c, err)
		return
	}

	sessionID, err := h.checkout.CreateCheckoutSession(c.Request.Context(), req)
	if errors.Is(err, models.ErrEmptyCheckout) || errors.Is(err, models.ErrMissingProductRef) {
		h.Log.Warn("⚠️ Panier refusé par la passerelle", zap.String("email", req.Email), zap.Error(err))
		h.HandleError(c, err)
		return
	}
	if err != nil {
		h.Log.Error("❌ Erreur Stripe", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment session creation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}
