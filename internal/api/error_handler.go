package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/psyconsult/booking-api/internal/api/handler"
	"github.com/psyconsult/booking-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details, unless debug is set.
//   - Renders the common envelope with success=false.
func NewHTTPErrorHandler(log zerolog.Logger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, fields := resolveError(err, log, c, debug)
		if werr := handler.Fail(c, code, msg, fields); werr != nil {
			log.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, debug bool) (int, string, map[string][]string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, "The given data was invalid.", ve.Fields
	}

	switch {
	case errors.Is(err, domain.ErrInvalidPaymentState):
		return http.StatusUnprocessableEntity, err.Error(), nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password.", nil
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated.", nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access forbidden.", nil
	case errors.Is(err, domain.ErrAlreadyAuthenticated):
		return http.StatusConflict, "Already authenticated.", nil
	case errors.Is(err, domain.ErrAppointmentNotFound):
		return http.StatusNotFound, "Appointment not found.", nil
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found.", nil
	}

	// Echo's own errors (router 404/405, rate limit 429, csrf 400/403).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code < http.StatusInternalServerError {
			return he.Code, fmt.Sprintf("%v", he.Message), nil
		}
		err = he
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	msg := "Internal server error."
	if debug {
		msg = err.Error()
	}
	return http.StatusInternalServerError, msg, nil
}
