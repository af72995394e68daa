package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ledgerengine/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// RequestLogger logs the start and completion of every request through the
// shared logger, the way the source project's request-context middleware
// logs each request's lifecycle. Every request is tagged with a generated
// request ID, echoed back on the response, the same request-scoping the
// source project's RequestContext built with uuid.New().
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Writer.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		logger.Debug("request started", map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})

		c.Next()

		logger.Info("request completed", map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		})
	}
}
