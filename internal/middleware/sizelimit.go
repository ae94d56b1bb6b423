package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/pkg/httputil"
)

// BodyLimit rejects requests whose declared length exceeds max and caps the
// body reader for chunked uploads. Reads past the cap fail with *http.MaxBytesError.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, httputil.Response{
				Success: false,
				Message: "Request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}
