package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-directory/internal/cache"
	"github.com/iliyamo/user-directory/internal/handler"
	"github.com/iliyamo/user-directory/internal/metrics"
	"github.com/iliyamo/user-directory/internal/middleware"
	"github.com/iliyamo/user-directory/internal/repository"
	"github.com/iliyamo/user-directory/internal/service"
	"github.com/iliyamo/user-directory/internal/utils"
)

type AppSuite struct {
	suite.Suite
	mr  *miniredis.Miniredis
	rdb *redis.Client
	e   *echo.Echo
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	log, _ := test.NewNullLogger()
	s.mr = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = s.rdb.Close() })

	m := metrics.New(prometheus.NewRegistry())
	mdb := repository.NewMemoryDB()
	kv := cache.NewRedisStore(s.rdb, "ud:")
	opts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}

	profiles := cache.New(kv, cache.DefaultTTL, cache.WithLogger(log), cache.WithMetrics(m))
	tokens := utils.NewTokenCodec("router-secret", 15*time.Minute)
	dir := service.NewDirectory(mdb.Users(), opts...)
	auth := service.NewAuthService(service.AuthServiceArgs{
		Directory:         dir,
		Hasher:            utils.NewPasswordHasher(bcrypt.MinCost),
		Tokens:            tokens,
		ResetCodes:        cache.NewResetCodes(kv),
		Cache:             profiles,
		SelfRegisterRoles: []string{"USER", "ADMIN"},
	}, opts...)
	users := service.NewUserService(service.UserServiceArgs{Directory: dir, Cache: profiles}, opts...)
	addresses := service.NewAddressService(service.AddressServiceArgs{Directory: dir, Addresses: mdb.Addresses()}, opts...)

	s.e = New(Handlers{
		Auth:          handler.NewAuthHandler(auth),
		Users:         handler.NewUserHandler(users),
		Admin:         handler.NewAdminHandler(users, auth),
		Addresses:     handler.NewAddressHandler(addresses),
		Health:        handler.NewHealthHandler(nil, s.rdb),
		Authenticator: middleware.NewAuthenticator(tokens, dir, middleware.WithAuthMetrics(m)),
		Metrics:       m,
	}, log)
}

func (s *AppSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *AppSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type authBody struct {
	User struct {
		UserName string `json:"userName"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
		Active   bool   `json:"userStatus"`
	} `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
}

func (s *AppSuite) register(userName, mobile, role string) string {
	rec := s.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"userName":     userName,
		"email":        userName + "@example.com",
		"mobileNumber": mobile,
		"fullName":     strings.ToUpper(userName[:1]) + userName[1:],
		"password":     "password-" + userName,
		"role":         role,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var out authBody
	s.decode(rec, &out)
	s.Require().NotEmpty(out.Access.Token)
	return out.Access.Token
}

func (s *AppSuite) errorOf(rec *httptest.ResponseRecorder) handler.ErrorResponse {
	var out handler.ErrorResponse
	s.decode(rec, &out)
	return out
}

func (s *AppSuite) TestProfileFlow() {
	tok := s.register("alice", "5550001", "")

	rec := s.do(http.MethodGet, "/api/users/me", tok, nil)
	s.Equal(http.StatusOK, rec.Code)
	var me authBody
	s.decode(rec, &me.User)
	s.Equal("alice", me.User.UserName)
	s.Equal("USER", me.User.Role)
	s.True(me.User.Active)
	s.True(s.mr.Exists("ud:users_name_alice"), "profile read goes through the cache")

	rec = s.do(http.MethodPut, "/api/users/me", tok, map[string]string{"fullName": "Alice Liddell"})
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/users/alice@example.com", tok, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.decode(rec, &me.User)
	s.Equal("Alice Liddell", me.User.FullName)

	rec = s.do(http.MethodGet, "/api/users/me", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("/api/users/me", s.errorOf(rec).APIPath)
}

func (s *AppSuite) TestDuplicateRegistration() {
	s.register("alice", "5550001", "")
	rec := s.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"userName": "alice2", "email": "alice@example.com", "mobileNumber": "5550002",
		"fullName": "Other", "password": "password-x",
	})
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("ALREADY_EXISTS", s.errorOf(rec).Category)
}

func (s *AppSuite) TestRegistrationValidation() {
	rec := s.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"userName": "a b", "email": "not-an-email", "mobileNumber": "12ab",
		"fullName": "", "password": "short",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	e := s.errorOf(rec)
	s.Equal("VALIDATION_FAILED", e.Category)
	s.Contains(e.Message, "email")
}

func (s *AppSuite) TestLoginHidesUnknownUsers() {
	s.register("alice", "5550001", "")

	rec := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"userName": "alice", "password": "password-alice"})
	s.Equal(http.StatusOK, rec.Code)

	wrong := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"userName": "alice", "password": "nope-nope"})
	ghost := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"userName": "ghost", "password": "nope-nope"})
	s.Equal(http.StatusUnauthorized, wrong.Code)
	s.Equal(http.StatusUnauthorized, ghost.Code)
	s.Equal(s.errorOf(wrong).Message, s.errorOf(ghost).Message)
	s.Equal(s.errorOf(wrong).Category, s.errorOf(ghost).Category)
}

func (s *AppSuite) TestStatusToggleIsSelfOrAdmin() {
	alice := s.register("alice", "5550001", "")
	bob := s.register("bob", "5550002", "")
	root := s.register("root", "5550003", "ADMIN")

	s.Equal(http.StatusForbidden, s.do(http.MethodPatch, "/api/users/alice/status", bob, nil).Code)

	rec := s.do(http.MethodPatch, "/api/users/alice/status", alice, nil)
	s.Equal(http.StatusOK, rec.Code)
	var body authBody
	s.decode(rec, &body.User)
	s.False(body.User.Active)

	rec = s.do(http.MethodPatch, "/api/users/alice/status", root, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.decode(rec, &body.User)
	s.True(body.User.Active)
}

func (s *AppSuite) TestAdminEndpoints() {
	alice := s.register("alice", "5550001", "")
	s.register("bob", "5550002", "")
	root := s.register("root", "5550003", "ADMIN")

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/admin/users/getUsers", alice, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/users/getUsers", "", nil).Code)

	rec := s.do(http.MethodGet, "/api/admin/users/getUsers?role=user&status=true", root, nil)
	s.Equal(http.StatusOK, rec.Code)
	var list []map[string]any
	s.decode(rec, &list)
	s.Len(list, 2)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/admin/users/getUsers?status=maybe", root, nil).Code)

	rec = s.do(http.MethodPatch, "/api/admin/users/bob/role", root, map[string]string{"role": "admin"})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/users/role/ADMIN", root, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.decode(rec, &list)
	s.Len(list, 2)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/admin/users/role/AUDITOR", root, nil).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/admin/users/alice", root, nil).Code)
	s.False(s.mr.Exists("ud:users_name_alice"))
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/admin/users/alice", root, nil).Code)

	// a token for a deleted user no longer authenticates
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", alice, nil).Code)
}

func (s *AppSuite) TestPasswordReset() {
	s.register("alice", "5550001", "")
	root := s.register("root", "5550003", "ADMIN")

	rec := s.do(http.MethodPost, "/api/users/resetPassword", "", map[string]string{
		"userName": "alice", "passwordResetType": "reset", "oldPassword": "password-alice", "newPassword": "second-password",
	})
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/users/resetPassword", "", map[string]string{
		"userName": "alice", "passwordResetType": "RESET", "newPassword": "third-password",
	})
	s.Equal(http.StatusBadRequest, rec.Code, "RESET needs the old password")

	rec = s.do(http.MethodPost, "/api/users/resetPassword", "", map[string]string{
		"userName": "alice", "type": "RESET", "oldPassword": "second-password", "newPassword": "third-password",
	})
	s.Equal(http.StatusBadRequest, rec.Code, "reset type is read from passwordResetType")

	rec = s.do(http.MethodPost, "/api/users/resetPassword", "", map[string]string{
		"userName": "alice", "passwordResetType": "FORGOT", "newPassword": "third-password", "code": "000000",
	})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/users/alice/resetCode", root, nil)
	s.Equal(http.StatusCreated, rec.Code)
	var issued struct {
		Code string `json:"code"`
	}
	s.decode(rec, &issued)
	s.Len(issued.Code, 6)

	rec = s.do(http.MethodPost, "/api/users/resetPassword", "", map[string]string{
		"userName": "alice", "passwordResetType": "FORGOT", "newPassword": "third-password", "code": issued.Code,
	})
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/users/login", "", map[string]string{"userName": "alice", "password": "third-password"})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AppSuite) TestAddressBook() {
	tok := s.register("alice", "5550001", "")

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/users/me/addresses", tok, nil).Code)

	addr := map[string]string{
		"receiverName": "Alice", "mobileNumber": "5550001", "label": "home", "line1": "1 Rabbit Hole",
		"city": "Oxford", "state": "Oxfordshire", "postalCode": "OX1", "country": "UK",
	}
	rec := s.do(http.MethodPost, "/api/users/me/addresses/addAddress", tok, addr)
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID       uint64 `json:"id"`
		UserName string `json:"userName"`
		City     string `json:"city"`
	}
	s.decode(rec, &created)
	s.NotZero(created.ID)
	s.Equal("alice", created.UserName)

	rec = s.do(http.MethodPut, "/api/users/me/addresses/updateAddress", tok, map[string]any{"id": created.ID, "city": "London"})
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &created)
	s.Equal("London", created.City)

	other := s.register("bob", "5550002", "")
	rec = s.do(http.MethodPut, "/api/users/me/addresses/updateAddress", other, map[string]any{"id": created.ID, "city": "Paris"})
	s.Equal(http.StatusNotFound, rec.Code, "addresses of other users are invisible")

	rec = s.do(http.MethodDelete, "/api/users/me/addresses/deleteAddresses", tok, map[string]any{"ids": []uint64{created.ID, 9999}})
	s.Equal(http.StatusOK, rec.Code)
	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	s.decode(rec, &deleted)
	s.EqualValues(1, deleted.Deleted)
}

func (s *AppSuite) TestProbesAndMetrics() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/readyz", "", nil).Code)

	s.do(http.MethodGet, "/api/users/me", "garbage", nil)
	rec = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "userdir_request_authentications_total")
}
