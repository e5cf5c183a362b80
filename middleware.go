package restblog

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderTimestamp = "X-Timestamp"
	HeaderPoweredBy = "X-Powered-By"
	HeaderRequestID = "X-Request-ID"

	requestIDKey = "request_id"
)

type requestIDContextKey struct{}

// ResponseHeaders stamps every response with the request time in unix
// milliseconds and the powered-by identification.
func ResponseHeaders(poweredBy string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(HeaderTimestamp, strconv.FormatInt(time.Now().UnixMilli(), 10))
		c.Header(HeaderPoweredBy, poweredBy)
		c.Next()
	}
}

// RequestID reuses an incoming X-Request-ID or generates one, and makes it
// available on both the gin context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDContextKey{}, id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// RequestLogger writes one structured line per request after it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, slog.String("error", c.Errors.String()))
			slog.ErrorContext(c.Request.Context(), "request failed", fields...)
			return
		}
		slog.InfoContext(c.Request.Context(), "request processed", fields...)
	}
}
