package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docparse/internal/domain"
	"docparse/internal/parser"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

// MapDomainError translates pipeline errors to HTTP status codes and error
// codes. The message is the error's own text.
func MapDomainError(err error) (status int, code, msg string) {
	msg = err.Error()
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST", msg
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", msg
	case errors.Is(err, domain.ErrDocumentDecode):
		return http.StatusBadRequest, "UNDECODABLE_DOCUMENT", msg
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND", msg
	case errors.Is(err, domain.ErrBackendUnavailable):
		if be, ok := parser.AsBackendError(err); ok && be.RateLimited() {
			return http.StatusServiceUnavailable, "BACKEND_RATE_LIMITED", msg
		}
		return http.StatusBadGateway, "BACKEND_UNAVAILABLE", msg
	case errors.Is(err, domain.ErrNoContent):
		return http.StatusBadGateway, "NO_CONTENT", msg
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, "MALFORMED_RESPONSE", msg
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", msg
	}
}

// HandleError maps an error and sends the appropriate error response. Rate
// limited backends add a Retry-After header.
func HandleError(c *gin.Context, log *zap.Logger, err error) {
	status, code, msg := MapDomainError(err)
	if be, ok := parser.AsBackendError(err); ok && be.RateLimited() && be.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(be.RetryAfter.Seconds())))
	}
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Error("handler: request failed",
			zap.Any("request_id", requestID),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	RespondError(c, status, code, msg)
}
