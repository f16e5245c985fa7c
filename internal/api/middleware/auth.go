package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

// Authenticator resolves a session token into the current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Session resolves the caller from the Authorization header or the session
// cookie. It never rejects: an absent or invalid token leaves the request
// anonymous, and the gates below decide.
func Session(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return next(c)
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err == nil {
				SetSession(c, user, token)
			}
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c); !ok {
				return domain.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// Guest rejects callers that already hold a valid session.
func Guest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c); ok {
				return domain.ErrAlreadyAuthenticated
			}
			return next(c)
		}
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func sessionToken(c echo.Context) string {
	if token, ok := BearerToken(c.Request()); ok {
		return token
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
