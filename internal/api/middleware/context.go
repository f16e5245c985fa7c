package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

const (
	identityKey = "identity"
	userKey     = "user"
	tokenKey    = "session_token"
)

// SetSession stores the resolved user and the token it was resolved from.
func SetSession(c echo.Context, u *domain.User, token string) {
	c.Set(identityKey, domain.IdentityOf(u))
	c.Set(userKey, u)
	c.Set(tokenKey, token)
}

// IdentityFrom returns the caller identity, if the request carried a valid session.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

func UserFrom(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(userKey).(*domain.User)
	return u, ok && u != nil
}

func TokenFrom(c echo.Context) string {
	t, _ := c.Get(tokenKey).(string)
	return t
}
