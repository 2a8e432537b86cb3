package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recover returns middleware that recovers from panics.
func Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered in handler",
					"panic", r,
					"path", c.FullPath(),
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					gin.H{"code": "internal_error", "error": "internal error"})
			}
		}()
		c.Next()
	}
}
