package rest

import (
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	userIDKey    = "user_id"
)

// requestID propagates the client's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog logs one line per request. Headers and bodies are not logged.
func (s *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's id in the context.
func (s *HTTPServer) requireAuth(c *gin.Context) {
	userID, err := s.guard.Authenticate(c.GetHeader(common.AuthorizationHeaderName))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

// currentUserID returns the id stored by requireAuth.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
