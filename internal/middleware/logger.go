package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

// Logger attache un logger portant request_id au contexte et journalise chaque requête
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		event := log.Ctx(c.Request.Context()).Info()
		if c.Writer.Status() >= 500 {
			event = log.Ctx(c.Request.Context()).Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("endpoint", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int64("latency", time.Since(start).Milliseconds()).
			Str("ip", c.ClientIP()).
			Msg("Request processed")
	}
}
