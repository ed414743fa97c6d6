package server

import (
	"time"

	"github.com/dataworks/dataworks/engine/core"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// RequestIDMiddleware propagates or assigns a request id. Task runs reuse it
// as their invocation id.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, requestID)
		c.Request = c.Request.WithContext(core.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// LoggerMiddleware attaches log to the request context and logs completion.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logger.ContextWithLogger(c.Request.Context(), log)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		log.Info("Request completed",
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"status_code", c.Writer.Status(),
			"body_size", c.Writer.Size(),
			"path", c.Request.URL.Path,
			"request_id", c.Writer.Header().Get(headerRequestID),
		)
	}
}
