// Package httperr defines the API error taxonomy and the terminal Echo
// error handler.  Handlers and middleware return *Error values; everything
// bubbles to HandlerFor which shapes the {success:false, error:...} JSON
// response.  Controllers never catch domain errors themselves except where a
// compensating action is required.
package httperr

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error is an API error carrying an HTTP status, a human-readable message
// and optional structured details (e.g. per-field validation messages).
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func New(code int, msg string) *Error { return &Error{Code: code, Message: msg} }

func BadRequest(msg string) *Error   { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *Error     { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *Error     { return New(http.StatusConflict, msg) }
func Internal(msg string) *Error     { return New(http.StatusInternalServerError, msg) }

// Validation builds a 422 with aggregated field messages as details.
func Validation(msg string, details any) *Error {
	return &Error{Code: http.StatusUnprocessableEntity, Message: msg, Details: details}
}

// HandlerFor returns the terminal error handler for the given environment.
// Unknown errors become 500s; their real message is only exposed in dev so
// internals never leak in production.
func HandlerFor(env string) echo.HTTPErrorHandler {
	dev := env == "dev" || env == "test"
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal server error"
		var details any

		var apiErr *Error
		var echoErr *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
			code, msg, details = apiErr.Code, apiErr.Message, apiErr.Details
		case errors.As(err, &echoErr):
			code = echoErr.Code
			if s, ok := echoErr.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		default:
			log.Printf("unhandled error: %v (path=%s)", err, c.Path())
			if dev {
				msg = err.Error()
			}
		}

		body := echo.Map{"success": false, "error": msg}
		if details != nil {
			body["details"] = details
		}
		if writeErr := c.JSON(code, body); writeErr != nil {
			log.Printf("error handler write failed: %v", writeErr)
		}
	}
}
