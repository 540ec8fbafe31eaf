package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// requireAPIKey rejects requests without the configured key. With no key
// configured every request passes.
func (s *Server) requireAPIKey(c *gin.Context) {
	if s.apiKey == "" {
		c.Next()
		return
	}

	got := c.GetHeader(APIKeyHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
		c.Abort()
		return
	}
	c.Next()
}
