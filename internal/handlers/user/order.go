package user

import (
	"context"
	"net/http"

	"agriconnect_back_end/internal/handlers"
	"agriconnect_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in models.CreateOrderInput) (*models.Order, error)
	ListByUser(ctx context.Context, email string) ([]models.OrderView, error)
	Cancel(ctx context.Context, orderID string) (*models.Order, error)
}

type OrderHandler struct {
	handlers.Base
	orders OrderService
}

func NewOrderHandler(orders OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{Base: handlers.NewBase(log), orders: orders}
}

// CreateOrder : POST /orders/create (commande hors carte bancaire).
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var in models.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.HandleBindError(c, err)
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"order":   order,
	})
}

// GetOrdersByEmail : GET /orders/:email, plus récentes d'abord.
func (h *OrderHandler) GetOrdersByEmail(c *gin.Context) {
	orders, err := h.orders.ListByUser(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// CancelOrder : PATCH /orders/cancel/:orderId.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orders.Cancel(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"order":   order,
	})
}
