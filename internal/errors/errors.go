package errors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/casebridge/internal/middleware"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrCaseNotFound       = "CASE_NOT_FOUND"
	ErrPartyNotFound      = "PARTY_NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrUnprocessable      = "UNPROCESSABLE_ENTITY"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

func respond(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

// NotFound returns a 404 response carrying code, which names the kind of
// resource that was missing (ErrCaseNotFound, ErrPartyNotFound or ErrNotFound).
func NotFound(c *gin.Context, code, message string) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Resource not found", map[string]interface{}{
			"code":    code,
			"message": message,
			"path":    c.Request.URL.Path,
		})
	}

	respond(c, http.StatusNotFound, code, message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	logFields := map[string]interface{}{
		"message": message,
		"path":    c.Request.URL.Path,
	}
	if details != nil {
		logFields["details"] = details
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Bad request", logFields)
	}

	respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// UnprocessableEntity returns a 422 for well-formed requests that reference
// something the case cannot accept, such as an unknown issue option.
func UnprocessableEntity(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Unprocessable request", map[string]interface{}{
			"message": message,
			"path":    c.Request.URL.Path,
		})
	}

	respond(c, http.StatusUnprocessableEntity, ErrUnprocessable, message, nil)
}

// ServiceUnavailable returns a 503 when a dependency is not ready.
func ServiceUnavailable(c *gin.Context, message string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Service unavailable", err, map[string]interface{}{
			"message": message,
			"path":    c.Request.URL.Path,
		})
	}

	respond(c, http.StatusServiceUnavailable, ErrServiceUnavailable, message, nil)
}

// InternalServerError returns a 500 Internal Server Error response.
// The error is logged with full context; the client only sees message.
func InternalServerError(c *gin.Context, message string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Internal server error", err, map[string]interface{}{
			"message": message,
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	}

	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
// Nested fields are keyed by their path below the root, e.g. "PlaintiffDetails[0].ItemNumber".
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[fieldPath(err)] = formatValidationError(err)
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Validation error", map[string]interface{}{
			"path":   c.Request.URL.Path,
			"fields": details,
		})
	}

	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
}

// fieldPath strips the root struct name from the error's namespace.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "len":
		return "Must have length of " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "uuid":
		return "Must be a valid UUID"
	case "unique":
		return "Values must be unique"
	case "plaintiff_name":
		return "Plaintiff name requires a first, last or full name"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
