package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/handler"
	"github.com/iliyamo/user-directory/internal/middleware"
)

// RegisterUser registers the endpoints any authenticated user may call.
// The guard is attached per route so the public auth routes sharing the
// /api/users prefix stay open.
func RegisterUser(e *echo.Echo, h *handler.UserHandler) {
	auth := middleware.RequireAuth()
	g := e.Group("/api/users")
	g.GET("/me", h.Me, auth)
	g.PUT("/me", h.UpdateMe, auth)
	// self or ADMIN, checked in the handler
	g.PATCH("/:userName/status", h.UpdateStatus, auth)
	g.GET("/:email", h.ByEmail, auth)
}
