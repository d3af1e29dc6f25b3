package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ContextRequestID the request's correlation id.
	ContextRequestID = "request_id"
	// ContextLogger a zap logger carrying the request id.
	ContextLogger = "logger"
)

// validRequestID client ids that are safe to echo and log.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID adopts a well-formed X-Request-ID or generates one, echoes it and
// scopes a child of logger to it.
func RequestID(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if !validRequestID.MatchString(rid) {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Set(ContextLogger, logger.With(zap.String("request_id", rid)))
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}

// RequestLogger the request-scoped logger, or fallback outside RequestID.
func RequestLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(ContextLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return fallback
}
