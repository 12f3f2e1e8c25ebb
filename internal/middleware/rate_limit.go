package middleware

import (
	"net/http"
	"strconv"
	"time"

	"smartshop_back_end/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const RateLimitWindow = time.Minute

// RateLimit limite le nombre de requêtes par IP et par minute.
// Si le compteur est indisponible la requête passe.
func RateLimit(counter cache.Counter, perMinute int) gin.HandlerFunc {
	limit := strconv.Itoa(perMinute)
	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		n, err := counter.Increment(ctx, "rate:ip:"+c.ClientIP(), RateLimitWindow)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("⚠️ Compteur de limite indisponible")
			c.Next()
			return
		}

		remaining := int64(perMinute) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > int64(perMinute) {
			c.Header("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"code":        "RATE_LIMITED",
				"retry_after": int(RateLimitWindow.Seconds()),
			})
			return
		}
		c.Next()
	}
}
