package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
)

const (
	headerRequestID = "X-Request-ID"
	keyRequestID    = "request_id"
)

// requestLogger tags every request with an id and attaches a logger carrying
// it to the request context.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(keyRequestID, reqID)
		c.Header(headerRequestID, reqID)

		logger := ctxlog.FromContext(c.Request.Context()).With("request_id", reqID)
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), logger))

		start := time.Now()
		c.Next()

		logger.Info("Request served.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP())
	}
}

// withBaseLogger makes logger the root of every request logger
func withBaseLogger(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), s.logger))
		c.Next()
	}
}

// rateLimit rejects requests beyond the limiter's rate with 429
func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "solve rate limit exceeded"})
			return
		}
		c.Next()
	}
}
