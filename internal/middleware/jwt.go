package middleware // middleware holds the echo middleware of the service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/user-directory/internal/metrics"
	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/utils"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(raw string, now time.Time) (utils.TokenSubject, error)
}

// SubjectResolver loads the user a token was issued to.
type SubjectResolver interface {
	FindByUserName(ctx context.Context, userName string) (model.User, error)
}

// Authenticator resolves the bearer token of a request into a principal.
// It never rejects a request: anything short of a valid token for a known
// user leaves the request anonymous, and authorization is left to
// RequireAuth and RequireRole.
type Authenticator struct {
	tokens  TokenVerifier
	users   SubjectResolver
	now     func() time.Time
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

type AuthenticatorOption func(*Authenticator)

func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) { a.now = now }
}

func WithAuthMetrics(m *metrics.Metrics) AuthenticatorOption {
	return func(a *Authenticator) { a.metrics = m }
}

func WithAuthLogger(l logrus.FieldLogger) AuthenticatorOption {
	return func(a *Authenticator) { a.log = l }
}

func NewAuthenticator(tokens TokenVerifier, users SubjectResolver, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		tokens: tokens,
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Authenticate resolves an Authorization header value. It returns false for
// a missing or malformed header, a token that fails verification, or a
// subject that no longer exists. The role comes from the stored user, so
// role changes take effect before the token expires.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*model.Principal, bool) {
	raw, ok := bearerToken(header)
	if !ok {
		a.metrics.Authentication("anonymous")
		return nil, false
	}
	sub, err := a.tokens.Verify(raw, a.now())
	if err != nil {
		if errors.Is(err, model.ErrTokenExpired) {
			a.metrics.Authentication("expired")
		} else {
			a.metrics.Authentication("invalid")
		}
		a.log.WithError(err).Debug("bearer token rejected")
		return nil, false
	}
	u, err := a.users.FindByUserName(ctx, sub.Subject)
	if err != nil {
		a.metrics.Authentication("unknown_subject")
		a.log.WithError(err).WithField("subject", sub.Subject).Debug("token subject not resolvable")
		return nil, false
	}
	a.metrics.Authentication("authenticated")
	return &model.Principal{UserName: u.UserName, Role: u.Role}, true
}

// Middleware runs Authenticate once per request and stores the principal
// on success. A request that already carries a principal is left alone.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if checked, _ := c.Get(echoCheckedKey).(bool); checked || CurrentPrincipal(c) != nil {
				return next(c)
			}
			c.Set(echoCheckedKey, true)
			if p, ok := a.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				setPrincipal(c, p)
			}
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}
