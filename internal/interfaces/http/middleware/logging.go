// Package middleware provides the cross-cutting gin middleware of the REST
// layer: request logging and Prometheus instrumentation.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
)

// RequestLogging logs one structured line per request.
func RequestLogging(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request failed", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request served", fields...)
		}
	}
}
