package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/api/handler"
	"github.com/trekkers/tour-client/internal/api/store"
)

// errorResponse is the failure envelope:
// {"status":"fail"|"error","message":"...","errors":{"field":"msg"}}.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps validation and store errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders "fail" for 4xx and "error" for 5xx.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Status: "fail", Message: ve.Error(), Errors: ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, etc.) and the
	// handlers' explicit statuses.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Status: statusWord(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return http.StatusBadRequest, errorResponse{
			Status:  "fail",
			Message: "Duplicate field value: email. Please use another value!",
			Errors:  map[string]string{"email": "Email already in use"},
		}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorResponse{Status: "fail", Message: "Resource not found"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Status: "error", Message: "Something went very wrong!"}
}

func statusWord(code int) string {
	if code >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}
