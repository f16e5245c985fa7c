package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the response wrapper shared by every endpoint, errors included.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func ok(c echo.Context, data any) error {
	return respond(c, http.StatusOK, "", data)
}

// Fail writes a failure envelope. Used by the HTTP error handler.
func Fail(c echo.Context, status int, message string, fields map[string][]string) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, Envelope{Success: false, Message: message, Errors: fields})
}
