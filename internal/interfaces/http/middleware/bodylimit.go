package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// TooLargeMessage is the error message of a request rejected for its size
const TooLargeMessage = "Request body exceeds maximum allowed size"

// BodyLimit rejects bodies larger than maxBytes. A declared Content-Length is
// refused up front; chunked bodies are cut off while the handler binds them,
// which the handler answers with ERR_REQUEST_TOO_LARGE as well.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge, TooLargeMessage, GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
