package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/handler"
	"github.com/iliyamo/user-directory/internal/middleware"
	"github.com/iliyamo/user-directory/internal/model"
)

// RegisterAdmin registers ADMIN-scoped user management under
// /api/admin/users.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler) {
	g := e.Group(
		"/api/admin/users",
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/getUsers", h.GetUsers)
	g.GET("/role/:role", h.UsersByRole)
	g.PATCH("/:userName/role", h.UpdateRole)
	g.DELETE("/:userName", h.DeleteUser)
	g.POST("/:userName/resetCode", h.IssueResetCode)
}
