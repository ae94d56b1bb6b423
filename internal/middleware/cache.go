package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// CatalogCacheAge is how long clients may reuse public catalog reads.
const CatalogCacheAge = time.Minute

type cacheWriter struct {
	gin.ResponseWriter
	directives string
}

func (w *cacheWriter) WriteHeader(code int) {
	if code < 400 {
		w.Header().Set("Cache-Control", w.directives)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.ResponseWriter.WriteHeader(code)
}

// PublicCache marks successful GET responses as cacheable for maxAge.
// Error responses are sent with no-store.
func PublicCache(maxAge time.Duration) gin.HandlerFunc {
	secs := strconv.Itoa(int(maxAge.Seconds()))
	directives := "public, max-age=" + secs + ", stale-while-revalidate=" + secs

	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Next()
			return
		}
		c.Writer = &cacheWriter{ResponseWriter: c.Writer, directives: directives}
		c.Next()
	}
}
