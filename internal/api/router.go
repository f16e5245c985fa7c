package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/psyconsult/booking-api/docs"
	"github.com/psyconsult/booking-api/internal/api/handler"
	"github.com/psyconsult/booking-api/internal/api/middleware"
	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
	"github.com/psyconsult/booking-api/internal/pkg/config"
)

// Deps groups everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Log          zerolog.Logger
	Appointments ports.AppointmentService
	Auth         ports.AuthService
	Dashboard    ports.DashboardService
	Users        handler.UserDirectory
	Health       map[string]handler.Pinger

	// HTTP metrics and /metrics are only wired when both are set.
	MetricsRegisterer prometheus.Registerer
	MetricsGatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, cfg.Debug)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{
			echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderAccept,
			middleware.CSRFHeader, echo.HeaderXRequestedWith,
		},
	}))
	if d.MetricsRegisterer != nil && d.MetricsGatherer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "booking",
			Subsystem:  "http",
			Registerer: d.MetricsRegisterer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: d.MetricsGatherer,
		}))
	}

	// --- Operational endpoints ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	appointmentHandler := handler.NewAppointmentHandler(d.Appointments)
	authHandler := handler.NewAuthHandler(d.Auth, handler.CookieOptions{
		Secure: cfg.IsProduction(),
		TTL:    cfg.Auth.SessionTTL,
	})
	dashboardHandler := handler.NewDashboardHandler(d.Appointments, d.Dashboard)
	adminHandler := handler.NewAdminHandler(d.Appointments, d.Dashboard, d.Users)

	csrfStrict := middleware.CSRF(middleware.CSRFOptions{
		Enabled: cfg.HTTP.CSRFEnabled,
		Secure:  cfg.IsProduction(),
	})
	csrfSession := middleware.CSRF(middleware.CSRFOptions{
		Enabled:     cfg.HTTP.CSRFEnabled,
		Secure:      cfg.IsProduction(),
		SessionOnly: true,
	})
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	apiGroup := e.Group("/api", middleware.Session(d.Auth))

	// --- Public ---
	apiGroup.POST("/appointments", appointmentHandler.Submit, csrfSession)

	// --- Auth ---
	auth := apiGroup.Group("/auth")
	auth.GET("/csrf-token", authHandler.CSRFToken, csrfStrict)

	guest := auth.Group("", middleware.Guest(), limiter.Middleware(), csrfStrict)
	guest.POST("/register", authHandler.Register)
	guest.POST("/login", authHandler.Login)

	member := auth.Group("", middleware.RequireAuth(), csrfSession)
	member.POST("/logout", authHandler.Logout)
	member.GET("/me", authHandler.Me)
	member.PUT("/profile", authHandler.UpdateProfile)

	// --- Client dashboard ---
	dashboard := apiGroup.Group("/dashboard", middleware.RequireAuth(), csrfSession)
	dashboard.GET("/my-appointments", dashboardHandler.MyAppointments)
	dashboard.GET("/my-stats", dashboardHandler.MyStats)
	dashboard.GET("/appointments/:id", dashboardHandler.Show)
	dashboard.POST("/appointments/:id/pay", dashboardHandler.Pay)

	// --- Admin ---
	admin := apiGroup.Group("/admin", middleware.RBAC(domain.RoleAdmin), csrfSession)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/appointments", adminHandler.Appointments)
	admin.PUT("/appointments/:id/status", adminHandler.SetStatus)
	admin.POST("/appointments/:id/mark-paid", adminHandler.MarkPaid)
	admin.GET("/clients", adminHandler.Clients)

	return e
}
