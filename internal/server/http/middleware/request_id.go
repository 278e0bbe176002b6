package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	// RequestIDHeader carries the request identifier in both directions.
	RequestIDHeader     = "X-Request-ID"
	requestIDContextKey = "requestID"
	maxRequestIDLength  = 128
)

// RequestID tags every request with a ULID unless the caller already supplied an id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = ulid.Make().String()
		}
		c.Set(requestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// CurrentRequestID returns the identifier assigned by RequestID.
func CurrentRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}
