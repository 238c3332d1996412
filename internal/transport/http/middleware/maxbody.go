package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "marketplace-api/internal/transport/http/response"
)

// MaxBodyBytes caps the request body. Handlers see *http.MaxBytesError
// when reading past n.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.CodeTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
