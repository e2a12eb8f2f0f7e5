package handler

import (
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/service"
)

// AdminHandler serves the ADMIN-only user management endpoints.
type AdminHandler struct {
	Users *service.UserService
	Auth  *service.AuthService
}

func NewAdminHandler(users *service.UserService, auth *service.AuthService) *AdminHandler {
	return &AdminHandler{Users: users, Auth: auth}
}

type updateRoleReq struct {
	Role string `json:"role"`
}

func (r updateRoleReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.Length(1, 32)),
	)
}

// GetUsers lists users matching the optional email, role and status query
// parameters. No parameters lists everyone.
func (h *AdminHandler) GetUsers(c echo.Context) error {
	var f service.SearchFilter
	if v := strings.TrimSpace(c.QueryParam("email")); v != "" {
		v = strings.ToLower(v)
		f.Email = &v
	}
	if v := strings.TrimSpace(c.QueryParam("role")); v != "" {
		v = strings.ToUpper(v)
		f.Role = &v
	}
	if v := strings.TrimSpace(c.QueryParam("status")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be true or false")
		}
		f.Active = &active
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Users.Search(ctx, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UsersByRole lists every user holding :role.
func (h *AdminHandler) UsersByRole(c echo.Context) error {
	role := strings.ToUpper(strings.TrimSpace(c.Param("role")))
	if role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing role")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Users.ByRole(ctx, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateRole assigns a new role to :userName.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req updateRoleReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	prof, err := h.Users.UpdateRole(ctx, c.Param("userName"), strings.ToUpper(strings.TrimSpace(req.Role)), p.UserName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prof)
}

// DeleteUser hard-deletes :userName together with its addresses.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, c.Param("userName"), p.UserName); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// IssueResetCode creates a one-time FORGOT code for :userName. The code is
// handed to the user out of band.
func (h *AdminHandler) IssueResetCode(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	userName := c.Param("userName")
	ctx, cancel := requestContext(c)
	defer cancel()

	code, err := h.Auth.IssueResetCode(ctx, userName, p.UserName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"userName":  userName,
		"code":      code,
		"expiresIn": int(service.ResetCodeTTL.Seconds()),
	})
}
