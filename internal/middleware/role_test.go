package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-directory/internal/model"
)

func withPrincipal(p *model.Principal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p != nil {
				setPrincipal(c, p)
			}
			return next(c)
		}
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	tests := []struct {
		name       string
		principal  *model.Principal
		guard      echo.MiddlewareFunc
		wantStatus int
	}{
		{"auth anonymous", nil, RequireAuth(), http.StatusUnauthorized},
		{"auth ok", &model.Principal{UserName: "a", Role: "USER"}, RequireAuth(), http.StatusOK},
		{"role anonymous", nil, RequireRole("ADMIN"), http.StatusUnauthorized},
		{"role wrong", &model.Principal{UserName: "a", Role: "USER"}, RequireRole("ADMIN"), http.StatusForbidden},
		{"role ok", &model.Principal{UserName: "a", Role: "ADMIN"}, RequireRole("ADMIN", "OPS"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, withPrincipal(tt.principal), tt.guard)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, withPrincipal(&model.Principal{UserName: "alice"}))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "nope") })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Data["user"])
	assert.Equal(t, http.StatusOK, entries[0].Data["status"])
	assert.Equal(t, "guest", entries[1].Data["user"])
	assert.Equal(t, http.StatusTeapot, entries[1].Data["status"])
	assert.Equal(t, logrus.InfoLevel, entries[1].Level)
}
