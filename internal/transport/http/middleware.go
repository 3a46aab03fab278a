package httptransport

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trustlens-server-go/internal/platform/observability"
	"trustlens-server-go/internal/utils"
)

const (
	requestIDHeader = "X-Request-ID"
	// RequestIDKey holds the request id in the gin context.
	RequestIDKey = "request_id"
)

// requestIDMiddleware keeps a caller supplied X-Request-ID or mints one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessMiddleware wraps each request in a span, logs one line for it and feeds
// the request counter and duration metric. Unrouted paths share the
// "unmatched" label so scanners cannot blow up label cardinality.
func accessMiddleware(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, end := observability.StartSpan(c.Request.Context(), "http.server", route)
		c.Request = c.Request.WithContext(ctx)

		started := time.Now()
		c.Next()
		elapsed := time.Since(started)
		status := c.Writer.Status()

		end(requestError(c, status))
		logger.InfoTag("HTTP", "%s %s -> %d (%s) id=%s",
			c.Request.Method, c.Request.URL.Path, status, elapsed, c.GetString(RequestIDKey))

		observability.ObserveRequest(c.Request.Method, route, status)
		observability.RecordMetric(ctx, "http.request.duration_ms", float64(elapsed.Milliseconds()), map[string]string{
			"component": "http.server",
			"method":    c.Request.Method,
			"path":      route,
			"status":    strconv.Itoa(status),
		})
	}
}

func requestError(c *gin.Context, status int) error {
	if last := c.Errors.Last(); last != nil {
		return last.Err
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("status %d", status)
	}
	return nil
}
