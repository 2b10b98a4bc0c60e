package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-ID"

	// Gin context key for storing the request-scoped logger.
	LoggerContextKey = "requestLogger"
)

// RequestLogger tags each request with an id, taken from the caller when
// present, and logs one line per request once it has been served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		entry := log.WithFields(log.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		})
		c.Set(LoggerContextKey, entry)

		start := time.Now()
		c.Next()

		fields := log.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		entry = entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("RequestLogger: request failed")
		case status >= 400:
			entry.Warn("RequestLogger: request rejected")
		default:
			entry.Debug("RequestLogger: request served")
		}
	}
}

// GetLoggerFromContext returns the request-scoped logger, or the standard
// logger when the middleware did not run.
func GetLoggerFromContext(c *gin.Context) *log.Entry {
	if v, exists := c.Get(LoggerContextKey); exists {
		if entry, ok := v.(*log.Entry); ok {
			return entry
		}
	}
	return log.NewEntry(log.StandardLogger())
}
