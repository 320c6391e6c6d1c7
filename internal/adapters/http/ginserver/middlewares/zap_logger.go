package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ZapLogger writes one structured access-log line per request.
func ZapLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("uri", c.Request.RequestURI),
			zap.String("route", c.FullPath()),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", max(c.Writer.Size(), 0)),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			l.Warn("http_request", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		l.Info("http_request", fields...)
	}
}
