package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-qa-platform/utils"
)

// RequestSizeLimit rejects requests whose declared body exceeds maxSize
// bytes. Uploads are the only large requests this service takes, so the
// limit is set from the configured maximum document size.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"request_too_large",
				"Request body exceeds maximum size",
				gin.H{"max_size_bytes": maxSize})
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
