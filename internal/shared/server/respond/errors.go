package respond

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/shared/apperr"
	"portfolio-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type publicError interface {
	PublicMessage() string
	PublicDetails() any
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Info("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Failure maps a domain error to a response by its apperr kind. Infrastructure
// failures are logged with their cause and answered with a generic retry hint.
func Failure(c *gin.Context, err error) {
	var pub publicError
	if errors.As(err, &pub) {
		status := http.StatusForbidden
		if !errors.Is(err, apperr.ErrForbidden) {
			status = statusFor(apperr.Kind(err))
		}
		Error(c, status, codeFor(apperr.Kind(err)), pub.PublicMessage(), pub.PublicDetails())
		return
	}

	switch kind := apperr.Kind(err); kind {
	case apperr.ErrUnavailable:
		telemetry.Error("store.unavailable", map[string]any{
			"request_id": c.GetString("requestId"),
			"path":       c.Request.URL.Path,
			"error":      err,
		})
		c.Header("Retry-After", "1")
		Error(c, http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable, please try again", nil)
	case nil:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
			return
		}
		telemetry.Error("http.unhandled", map[string]any{
			"request_id": c.GetString("requestId"),
			"path":       c.Request.URL.Path,
			"error":      err,
		})
		Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
	default:
		Error(c, statusFor(kind), codeFor(kind), err.Error(), nil)
	}
}

func statusFor(kind error) int {
	switch kind {
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrExpired:
		return http.StatusGone
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrInvalid:
		return http.StatusBadRequest
	case apperr.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(kind error) string {
	switch kind {
	case apperr.ErrNotFound:
		return "not_found"
	case apperr.ErrExpired:
		return "expired"
	case apperr.ErrConflict:
		return "conflict"
	case apperr.ErrForbidden:
		return "plan_limit"
	case apperr.ErrInvalid:
		return "validation_error"
	case apperr.ErrUnavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}
