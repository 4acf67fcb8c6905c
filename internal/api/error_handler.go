package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hospital-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Details
// carries per-field messages when the failure has a safe breakdown (request
// validation); it is omitted otherwise.
type errorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope with timestamp, status, and path.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, details := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{
			Timestamp: time.Now().UTC(),
			Status:    code,
			Error:     http.StatusText(code),
			Message:   msg,
			Details:   details,
			Path:      c.Request().URL.Path,
			Method:    c.Request().Method,
		})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, []string) {
	// Echo's own errors (bind failures, 404 from router, etc.). The request
	// validator reports per-field messages as a []string; they become the
	// details of a single validation-failed response.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if details, ok := he.Message.([]string); ok {
			return he.Code, "validation failed", details
		}
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDuplicateResource):
		return http.StatusBadRequest, err.Error(), nil
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountDisabled),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, err.Error(), nil
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, "access denied", nil
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error(), nil
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error", nil
}
