package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Limites par endpoint
	CheckoutMaxRequests = 10
	APIMaxRequests      = 100 // Par minute pour les endpoints généraux

	RateLimitWindow = 1 * time.Minute
)

// RateLimit limite le nombre de requêtes par IP sur une fenêtre fixe, compteur
// tenu dans Redis. Sans Redis, ou si Redis ne répond pas, la requête passe.
func RateLimit(rdb *redis.Client, scope string, max int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate:%s:%s", scope, c.ClientIP())

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn("⚠️ Rate limit indisponible", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		requests := incr.Val()
		remaining := max - requests
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(max, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if requests > max {
			ttl := rdb.TTL(ctx, key).Val()
			if ttl <= 0 {
				ttl = window
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez plus tard",
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		c.Next()
	}
}
