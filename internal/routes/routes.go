package routes

import (
	"net/http"
	"time"

	"agriconnect_back_end/internal/handlers/payement"
	"agriconnect_back_end/internal/handlers/user"
	"agriconnect_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Payment *payement.Handler
	Orders  *user.OrderHandler
}

// Options regroupe ce qui ne relève pas des handlers : CORS et Redis pour le
// rate limit (nil le désactive).
type Options struct {
	CORSOrigins []string
	Redis       *redis.Client
}

func RegisterRoutes(r *gin.Engine, h Handlers, opts Options, log *zap.Logger) {
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(middleware.Recovery(log.Named("http")))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Stripe
	r.POST("/webhook", h.Payment.StripeWebhook)
	r.POST("/create-checkout-session",
		middleware.RateLimit(opts.Redis, "checkout", middleware.CheckoutMaxRequests, middleware.RateLimitWindow, log),
		h.Payment.CreateCheckoutSession)

	// Commandes
	orders := r.Group("/orders")
	orders.Use(middleware.RateLimit(opts.Redis, "api", middleware.APIMaxRequests, middleware.RateLimitWindow, log))
	{
		orders.POST("/create", h.Orders.CreateOrder)
		orders.GET("/:email", h.Orders.GetOrdersByEmail)
		orders.PATCH("/cancel/:orderId", h.Orders.CancelOrder)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
