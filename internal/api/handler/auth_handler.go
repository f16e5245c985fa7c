package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/api/middleware"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

// CookieOptions controls the session cookie issued on login and registration.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// CSRFToken issues the anti-forgery token consumed by register and login.
//
// @Summary      Issue an anti-forgery token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Envelope{data=csrfResponse}
// @Router       /auth/csrf-token [get]
func (h *AuthHandler) CSRFToken(c echo.Context) error {
	token, _ := c.Get(middleware.CSRFContextKey).(string)
	return ok(c, csrfResponse{CSRFToken: token})
}

// Register creates a client account and opens a session.
//
// @Summary      Register a new client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  Envelope{data=sessionResponse}
// @Failure      409   {object}  Envelope
// @Failure      422   {object}  Envelope
// @Failure      429   {object}  Envelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session.Token)
	return respond(c, http.StatusCreated, "Registration successful.", sessionResponse{
		User:  toUserResponse(session.User),
		Token: session.Token,
	})
}

// Login authenticates a user and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  Envelope{data=sessionResponse}
// @Failure      401   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Failure      422   {object}  Envelope
// @Failure      429   {object}  Envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session.Token)
	return respond(c, http.StatusOK, "Login successful.", sessionResponse{
		User:  toUserResponse(session.User),
		Token: session.Token,
	})
}

// Logout ends the current session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.TokenFrom(c)); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.ExpireCSRFCookie(c)

	return respond(c, http.StatusOK, "Logged out.", nil)
}

// Me returns the current user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=userResponse}
// @Failure      401  {object}  Envelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, toUserResponse(user))
}

// UpdateProfile changes name, phone or password of the current user.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile changes"
// @Success      200   {object}  Envelope{data=userResponse}
// @Failure      401   {object}  Envelope
// @Failure      422   {object}  Envelope
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), id, ports.UpdateProfileInput{
		Name:            req.Name,
		Phone:           req.Phone,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile updated.", toUserResponse(user))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookies.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
