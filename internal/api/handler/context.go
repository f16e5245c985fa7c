package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/api/middleware"
	"github.com/psyconsult/booking-api/internal/core/domain"
)

// actor returns the identity resolved by the session middleware. Routes
// behind RequireAuth always have one; the check guards miswired routes.
func actor(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.UserID == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// bind decodes the JSON body into req, normalizes it and validates it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("body", "The request body must be a valid JSON object.")
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(req)
}
