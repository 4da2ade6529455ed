package errors

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projectdesk/internal/services"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeExpiredToken       = "EXPIRED_TOKEN"
	ErrCodeRevokedToken       = "REVOKED_TOKEN"
	ErrCodeMalformedToken     = "MALFORMED_TOKEN"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeValidationError = "VALIDATION_ERROR"

	// Resource errors
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeDuplicateIdentity      = "DUPLICATE_IDENTITY"
	ErrCodeAlreadyAssigned        = "ALREADY_ASSIGNED"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Business logic errors
	ErrCodeOperationFailed = "OPERATION_FAILED"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// tokenError returns the code of a token failure wrapped in err, if any.
func tokenError(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrExpiredToken):
		return ErrCodeExpiredToken, true
	case errors.Is(err, services.ErrRevokedToken):
		return ErrCodeRevokedToken, true
	case errors.Is(err, services.ErrMalformedToken):
		return ErrCodeMalformedToken, true
	}
	return "", false
}

// FromServiceError maps an error of the service taxonomy to a status code
// and response body. Unknown errors become a generic 500.
func FromServiceError(err error) (int, *APIError) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeValidationError, verr.Error(), verr)
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, NewAPIError(ErrCodeInvalidCredentials, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		if code, ok := tokenError(err); ok {
			return http.StatusUnauthorized, NewAPIError(code, "Authentication required")
		}
		return http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrExpiredToken),
		errors.Is(err, services.ErrRevokedToken),
		errors.Is(err, services.ErrMalformedToken):
		code, _ := tokenError(err)
		return http.StatusUnauthorized, NewAPIError(code, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, NewAPIError(ErrCodeForbidden, "Access denied")
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, NewAPIError(ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateIdentity):
		return http.StatusConflict, NewAPIError(ErrCodeDuplicateIdentity, err.Error())
	case errors.Is(err, services.ErrAlreadyAssigned):
		return http.StatusConflict, NewAPIError(ErrCodeAlreadyAssigned, err.Error())
	case errors.Is(err, services.ErrConcurrentModification):
		return http.StatusConflict, NewAPIError(ErrCodeConcurrentModification, err.Error())
	case errors.Is(err, services.ErrSuggestionsUnavailable):
		return http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrNoTasksSuggested):
		return http.StatusUnprocessableEntity, NewAPIError(ErrCodeOperationFailed, err.Error())
	}
	return http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, "Internal server error")
}

// RespondServiceError sends the response for an error returned by a service
func RespondServiceError(c *gin.Context, err error) {
	status, apiErr := FromServiceError(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	RespondWithError(c, status, apiErr)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
