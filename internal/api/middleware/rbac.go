package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

// RBAC enforces role-based access control. Anonymous callers are forbidden
// as well, so admin routes answer 403 regardless of authentication state.
func RBAC(allowedRoles ...domain.RoleName) echo.MiddlewareFunc {
	allowed := make(map[domain.RoleName]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := IdentityFrom(c)
			if _, ok := allowed[id.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
