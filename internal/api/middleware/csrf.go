package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	CSRFCookie     = "_csrf"
	CSRFHeader     = "X-CSRF-Token"
	CSRFContextKey = "csrf"
)

// CSRFOptions configures the anti-forgery middleware.
type CSRFOptions struct {
	Enabled bool
	Secure  bool
	// SessionOnly limits enforcement to requests carrying the session cookie.
	// Anonymous submissions and the pre-flight itself use the strict variant.
	SessionOnly bool
}

// CSRF wraps echo's double-submit middleware. Requests authenticated with a
// bearer token are exempt, since browsers never attach those on their own.
func CSRF(opts CSRFOptions) echo.MiddlewareFunc {
	if !opts.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			if _, ok := BearerToken(c.Request()); ok {
				return true
			}
			if opts.SessionOnly {
				_, err := c.Cookie(SessionCookie)
				return err != nil
			}
			return false
		},
		TokenLookup:    "header:" + CSRFHeader,
		ContextKey:     CSRFContextKey,
		CookieName:     CSRFCookie,
		CookiePath:     "/",
		CookieSecure:   opts.Secure,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

// ExpireCSRFCookie drops the anti-forgery cookie so the next pre-flight
// issues a fresh token.
func ExpireCSRFCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:   CSRFCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
