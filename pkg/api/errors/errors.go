package errors

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

// statusByCode maps domain error codes to HTTP statuses
var statusByCode = map[string]int{
	domain.ErrCodeNotFound:          http.StatusNotFound,
	domain.ErrCodeValidation:        http.StatusBadRequest,
	domain.ErrCodeBadRequest:        http.StatusBadRequest,
	domain.ErrCodeUnauthorized:      http.StatusUnauthorized,
	domain.ErrCodeForbidden:         http.StatusForbidden,
	domain.ErrCodeConflict:          http.StatusConflict,
	domain.ErrCodeConfiguration:     http.StatusServiceUnavailable,
	domain.ErrCodeMalformedResponse: http.StatusBadGateway,
	domain.ErrCodeStorage:           http.StatusBadGateway,
	domain.ErrCodeInternal:          http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for err's domain code
func StatusFor(err error) int {
	if status, ok := statusByCode[domain.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainError writes err as {error, message, details}. Internal errors are logged,
// reported to Sentry and answered with a generic message.
func DomainError(c echo.Context, err error) error {
	code := domain.CodeOf(err)
	status := StatusFor(err)

	var de *domain.DomainError
	if !errors.As(err, &de) || code == domain.ErrCodeInternal {
		return InternalError(c, err)
	}

	if status >= http.StatusInternalServerError {
		log.Printf("[%s] Path: %s, Error: %v", code, c.Request().URL.Path, err)
		capture(c, err)
	}

	resp := models.ErrorResponse{
		Error:   strings.ToLower(code),
		Message: de.Message,
	}
	if len(de.Details) > 0 {
		resp.Details = de.Details
	}
	return c.JSON(status, resp)
}

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
	capture(c, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// ForbiddenError returns a generic forbidden error
func ForbiddenError(c echo.Context) error {
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "forbidden",
		Message: "You do not have permission to access this resource.",
	})
}

func capture(c echo.Context, err error) {
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}
