package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playlistplunge/playlist-plunge/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware that records every request in the access log.
// Streaming requests are logged when the stream closes.
func Logger(logs *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		logs.Access().Info("HTTP request", fields...)
		if statusCode >= 500 {
			logs.LogError("HTTP error response", fields...)
		}
	}
}
