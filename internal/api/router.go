package api

import (
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/tablebook/reservation-client/internal/api/handler"
	"github.com/tablebook/reservation-client/internal/api/middleware"
	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

// Session is what the router needs from the session manager: the lifecycle
// operations plus the snapshot the guard reads.
type Session interface {
	handler.SessionService
	middleware.StateSource
}

// Deps are the collaborators wired into the HTTP host.
type Deps struct {
	Session      Session
	Cart         handler.CartManager
	Reservations ports.ReservationClient
	Probes       map[string]handler.Probe
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HideVersion = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(httpMetrics())

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(d.Session)
	cartHandler := handler.NewCartHandler(d.Cart)
	reservationHandler := handler.NewReservationHandler(d.Reservations, d.Log)
	healthHandler := handler.NewHealthHandler(d.Probes)

	// --- Session lifecycle ---
	s := e.Group("/session")
	s.GET("", sessionHandler.Get)
	s.POST("/login", sessionHandler.Login)
	s.POST("/register", sessionHandler.Register)
	s.POST("/logout", sessionHandler.Logout)
	s.PATCH("/user", sessionHandler.UpdateUser)
	s.POST("/refresh", sessionHandler.Refresh)
	s.POST("/forgot-password", sessionHandler.ForgotPassword)
	s.POST("/reset-password", sessionHandler.ResetPassword)

	// --- Cart ---
	e.GET("/cart", cartHandler.Get)
	e.DELETE("/cart", cartHandler.Clear)
	e.POST("/cart/items", cartHandler.AddItem)
	e.PATCH("/cart/items/:name", cartHandler.UpdateItem)
	e.DELETE("/cart/items/:name", cartHandler.RemoveItem)

	// --- Public views ---
	e.GET("/tables", reservationHandler.ListTables)
	e.GET("/tables/:id", reservationHandler.GetTable)
	e.POST("/contact", reservationHandler.SendContact)
	e.GET("/contact/admins", reservationHandler.ListAdmins)

	// --- Authenticated views ---
	b := e.Group("/bookings", middleware.Guard(d.Session, middleware.Requirements{}))
	b.GET("/me", reservationHandler.MyBookings)
	b.POST("", reservationHandler.CreateBooking)
	b.PUT("/:id", reservationHandler.UpdateBooking)
	b.POST("/:id/cancel", reservationHandler.CancelBooking)
	b.DELETE("/:id", reservationHandler.DeleteBooking)

	// --- Admin views ---
	a := e.Group("/admin", middleware.Guard(d.Session, middleware.Requirements{Roles: []domain.Role{domain.RoleAdmin}}))
	a.POST("/tables", reservationHandler.CreateTable)
	a.PUT("/tables/:id", reservationHandler.UpdateTable)
	a.DELETE("/tables/:id", reservationHandler.DeleteTable)
	a.POST("/upload", reservationHandler.Upload)

	// --- Health probes, metrics and docs (no guard) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

var (
	httpMetricsOnce sync.Once
	httpMetricsMW   echo.MiddlewareFunc
)

// httpMetrics registers the echoprometheus collectors once per process.
func httpMetrics() echo.MiddlewareFunc {
	httpMetricsOnce.Do(func() {
		httpMetricsMW = echoprometheus.NewMiddleware("tablebook")
	})
	return httpMetricsMW
}

// requestLogger logs one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
