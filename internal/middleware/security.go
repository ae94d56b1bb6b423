package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the response hardening headers. HSTS is only sent when
// hsts is true, which the router does in production.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if c.Request.Method != "GET" {
			h.Set("Cache-Control", "no-store")
		}
		c.Next()
	}
}
