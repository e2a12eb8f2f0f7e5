package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/service"
)

var userNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// AuthHandler bundles dependencies for the public auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	UserName     string `json:"userName"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	FullName     string `json:"fullName"`
	Password     string `json:"password"`
	Role         string `json:"role"`
}

func (r registerReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required, validation.Length(3, 64), validation.Match(userNamePattern)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.MobileNumber, validation.Required, validation.Length(7, 15), is.Digit),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.Length(0, 32)),
	)
}

type loginReq struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type resetPasswordReq struct {
	UserName    string `json:"userName"`
	Type        string `json:"passwordResetType"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
	Code        string `json:"code"`
}

func (r resetPasswordReq) Validate() error {
	var oldRules []validation.Rule
	if r.Type == service.ResetTypeReset {
		oldRules = append(oldRules, validation.Required)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required),
		validation.Field(&r.Type, validation.Required, validation.In(service.ResetTypeReset, service.ResetTypeForgot)),
		validation.Field(&r.OldPassword, oldRules...),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User   model.UserProfile `json:"user"`
	Access tokenPart         `json:"access"`
}

func newAuthResp(res *service.AuthResult) authResp {
	return authResp{
		User:   res.Profile,
		Access: tokenPart{Token: res.Token.Token, Expires: res.Token.Exp},
	}
}

// Register creates a user and returns an access token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, service.RegisterArgs{
		UserName:     strings.TrimSpace(req.UserName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		MobileNumber: strings.TrimSpace(req.MobileNumber),
		FullName:     strings.TrimSpace(req.FullName),
		Password:     req.Password,
		Role:         strings.ToUpper(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newAuthResp(res))
}

// Login verifies the password and returns a fresh access token. Unknown
// users and wrong passwords get the same reply.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, strings.TrimSpace(req.UserName), req.Password)
	if err != nil {
		return maskUnknownUser(err)
	}
	return c.JSON(http.StatusOK, newAuthResp(res))
}

// ResetPassword handles both RESET (old password) and FORGOT (one-time
// code) flows.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	if err := req.Validate(); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	err := h.Auth.ResetPassword(ctx, service.ResetPasswordArgs{
		UserName:    strings.TrimSpace(req.UserName),
		Type:        req.Type,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
		Code:        req.Code,
	})
	if err != nil {
		return maskUnknownUser(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// maskUnknownUser reports an unknown user exactly like a wrong password.
func maskUnknownUser(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrBadCredentials
	}
	return err
}
