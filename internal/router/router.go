package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/user-directory/internal/handler"
	"github.com/iliyamo/user-directory/internal/metrics"
	"github.com/iliyamo/user-directory/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Admin         *handler.AdminHandler
	Addresses     *handler.AddressHandler
	Health        *handler.HealthHandler
	Authenticator *middleware.Authenticator
	Metrics       *metrics.Metrics
}

// New builds the echo instance with the global middleware chain and every
// route registered. The authenticator runs on every request and never
// rejects; the per-group guards decide access.
func New(h Handlers, log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(h.Authenticator.Middleware())

	RegisterRoutes(e, h.Health, h.Metrics)
	RegisterAuth(e, h.Auth)
	RegisterUser(e, h.Users)
	RegisterAddresses(e, h.Addresses)
	RegisterAdmin(e, h.Admin)
	return e
}

// RegisterRoutes registers the probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler, m *metrics.Metrics) {
	e.GET("/healthz", health.Health)
	e.GET("/readyz", health.Ready)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers the public registration, login and password
// reset endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api/users")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/resetPassword", a.ResetPassword)
}
