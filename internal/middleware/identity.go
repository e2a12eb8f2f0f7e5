package middleware

// identity.go carries the authenticated principal through a request. The
// principal lives in the request's context.Context, so code below the HTTP
// layer can read it, and is mirrored on the echo context for handlers.

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-directory/internal/model"
)

type contextKey string

const principalKey contextKey = "principal"

// echo context keys
const (
	echoPrincipalKey = "principal"
	echoCheckedKey   = "auth_checked"
)

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored in ctx, or nil.
func PrincipalFrom(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalKey).(*model.Principal)
	return p
}

// CurrentPrincipal returns the principal of the request, or nil when the
// request is anonymous.
func CurrentPrincipal(c echo.Context) *model.Principal {
	if p, ok := c.Get(echoPrincipalKey).(*model.Principal); ok && p != nil {
		return p
	}
	return PrincipalFrom(c.Request().Context())
}

// userID returns the principal's user name, or "guest".
func userID(c echo.Context) string {
	if p := CurrentPrincipal(c); p != nil {
		return p.UserName
	}
	return "guest"
}

func setPrincipal(c echo.Context, p *model.Principal) {
	c.Set(echoPrincipalKey, p)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
}
