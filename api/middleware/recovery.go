package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playlistplunge/playlist-plunge/pkg/logger"
	"go.uber.org/zap"
)

// Recovery returns a gin middleware for panic recovery
func Recovery(logs *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logs.LogError("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("client_ip", c.ClientIP()),
				)
				// Headers are already out for a stream; all that is left is to stop
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
