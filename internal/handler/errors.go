package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/user-directory/internal/model"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	APIPath   string    `json:"apiPath"`
	Status    int       `json:"status"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// classify maps an error onto status, category and a client-safe message.
func classify(err error) (int, string, string) {
	var (
		verr validation.Errors
		herr *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "VALIDATION_FAILED", verr.Error()
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, model.ErrBadCredentials):
		return http.StatusUnauthorized, "BAD_CREDENTIALS", "invalid credentials"
	case errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenInvalid):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, model.ErrAlreadyExists):
		return http.StatusConflict, "ALREADY_EXISTS", "resource already exists"
	case errors.Is(err, model.ErrLimitExceeded):
		return http.StatusUnprocessableEntity, "LIMIT_EXCEEDED", err.Error()
	case errors.Is(err, model.ErrCache):
		return http.StatusServiceUnavailable, "CACHE_ERROR", "cache unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "request timed out"
	case errors.As(err, &herr):
		msg := http.StatusText(herr.Code)
		if s, ok := herr.Message.(string); ok {
			msg = s
		}
		category := strings.ToUpper(strings.ReplaceAll(http.StatusText(herr.Code), " ", "_"))
		return herr.Code, category, msg
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal server error"
	}
}

// NewHTTPErrorHandler returns the echo error handler that renders every
// failure as an ErrorResponse. Server errors are logged with the request id.
func NewHTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, category, msg := classify(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).
				WithField("path", c.Request().URL.Path).
				WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Error("request failed")
		}
		body := ErrorResponse{
			APIPath:   c.Request().URL.Path,
			Status:    status,
			Category:  category,
			Message:   msg,
			Timestamp: time.Now().UTC(),
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.WithError(werr).Warn("writing error response failed")
		}
	}
}

// bindAndValidate binds the request body into v and runs its Validate.
func bindAndValidate(c echo.Context, v validation.Validatable) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return v.Validate()
}

// requestContext bounds the work of one handler.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
