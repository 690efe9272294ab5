package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"brandnft/internal/logger"
)

// TreasuryHeader carries the operator key for treasury endpoints.
const TreasuryHeader = "X-API-Key"

// TreasuryAuthMiddleware guards the treasury operator endpoints with a shared
// API key. With no key configured the endpoints are disabled.
func TreasuryAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "TREASURY_NOT_CONFIGURED", "message": "Treasury endpoints are not configured"}})
			return
		}
		key := c.GetHeader(TreasuryHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			logger.Named("treasury").Warnw("rejected treasury request",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"key_present", key != "",
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"}})
			return
		}
		c.Next()
	}
}
