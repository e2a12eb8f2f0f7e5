package handler

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/middleware"
	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/service"
)

// UserHandler serves the authenticated user endpoints.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type updateProfileReq struct {
	FullName     *string `json:"fullName"`
	MobileNumber *string `json:"mobileNumber"`
}

func (r updateProfileReq) Validate() error {
	if r.FullName == nil && r.MobileNumber == nil {
		return validation.Errors{"body": errors.New("nothing to update")}
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.MobileNumber, validation.NilOrNotEmpty, validation.Length(7, 15), is.Digit),
	)
}

// caller returns the principal set by the authenticator. Routes using it
// sit behind RequireAuth.
func caller(c echo.Context) (*model.Principal, error) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	prof, err := h.Users.Profile(ctx, p.UserName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prof)
}

// UpdateMe edits the caller's full name and/or mobile number.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req updateProfileReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	prof, err := h.Users.UpdateProfile(ctx, p.UserName, model.ProfileChanges{
		FullName:     req.FullName,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prof)
}

// UpdateStatus toggles the active flag of :userName. Users may toggle
// themselves; admins may toggle anyone.
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	target := strings.TrimSpace(c.Param("userName"))
	if target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user name")
	}
	if target != p.UserName && !p.HasRole(model.RoleAdmin) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	prof, err := h.Users.UpdateStatus(ctx, target, p.UserName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prof)
}

// ByEmail looks a profile up by email address.
func (h *UserHandler) ByEmail(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	prof, err := h.Users.ByEmail(ctx, email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prof)
}
