package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/handler"
	"github.com/iliyamo/user-directory/internal/middleware"
)

// RegisterAddresses registers the caller's address book endpoints. Every
// route acts on the authenticated user's own addresses.
func RegisterAddresses(e *echo.Echo, h *handler.AddressHandler) {
	g := e.Group("/api/users/me/addresses", middleware.RequireAuth())
	g.GET("", h.List)
	g.POST("/addAddress", h.Add)
	g.PUT("/updateAddress", h.Update)
	g.DELETE("/deleteAddresses", h.Delete)
}
