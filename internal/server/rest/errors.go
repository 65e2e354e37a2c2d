package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps a service error to the status code and the message shown to
// the client. Internal causes never reach the message.
func statusFor(err error) (int, string) {
	var dup *common.DuplicateError
	var verr *common.ValidationError

	switch {
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrorInvalidToken):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, common.ErrorAuthentication):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.As(err, &dup):
		return http.StatusConflict, dup.Error()
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, common.ErrorTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, common.ErrorBodyRead):
		return http.StatusBadRequest, "Could not read upload body"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "File not found"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "You don't have permission to access this file"
	case errors.Is(err, common.ErrorOrphanedRecord):
		return http.StatusInternalServerError, "File was removed from storage but its record could not be deleted"
	case errors.Is(err, common.ErrorStorage):
		return http.StatusInternalServerError, "File storage error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// abortWithError writes err as a JSON error and stops the handler chain.
// 5xx causes are logged.
func (s *HTTPServer) abortWithError(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", common.BearerScheme)
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(code, errorResponse{Detail: msg})
}

// abortWithStatus writes a fixed status and message.
func abortWithStatus(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, errorResponse{Detail: msg})
}
