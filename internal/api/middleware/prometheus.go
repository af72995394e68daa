// Package middleware holds the Gin middleware chain for the read-only
// ledger HTTP surface.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ledgerengine/internal/telemetry"
)

// Prometheus collects HTTP metrics for every request in Prometheus format.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.HTTPRequestsInFlight.Inc()
		defer telemetry.HTTPRequestsInFlight.Dec()

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		statusCode := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration.Seconds())
		telemetry.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	}
}
