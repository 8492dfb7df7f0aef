package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gamo-keyword-api/internal/ai"
	"gamo-keyword-api/internal/logger"
	"gamo-keyword-api/internal/selector"
	"gamo-keyword-api/internal/store"
	"gamo-keyword-api/services"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status    int         `json:"status"`
	ErrorCode string      `json:"error_code"`
	Detail    string      `json:"detail"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, detail string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Status:    statusCode,
		ErrorCode: errorCode,
		Detail:    detail,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, detail string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", detail, details)
}

// ServiceErrorStatus maps a service error to its HTTP status and error code.
func ServiceErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, selector.ErrEmptyCallIDs),
		errors.Is(err, services.ErrEmptyTranscript),
		errors.Is(err, services.ErrEmptyLetter),
		errors.Is(err, store.ErrInvalidKeyword):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, selector.ErrNoKeywordsFound):
		return http.StatusNotFound, "keywords_not_found"
	case errors.Is(err, ai.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, ai.ErrMalformedExtraction), errors.Is(err, ai.ErrMalformedRender):
		return http.StatusInternalServerError, "malformed_reply"
	case errors.Is(err, store.ErrStorage), errors.Is(err, store.ErrDuplicateID):
		return http.StatusInternalServerError, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondWithServiceError writes the error payload for err. Server-side
// failures are logged and their detail is not echoed to the client.
func RespondWithServiceError(c *gin.Context, err error) {
	status, code := ServiceErrorStatus(err)
	detail := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"request_id", c.GetString("request_id"),
			"path", c.FullPath(),
			"error_code", code,
			"error", err,
		)
		detail = http.StatusText(status)
	}
	RespondWithError(c, status, code, detail, nil)
}
