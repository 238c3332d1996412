package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"marketplace-api/internal/app"
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/repo"
	"marketplace-api/internal/transport/http/handler"
)

type testServer struct {
	t     *testing.T
	r     *gin.Engine
	app   *app.App
	admin string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		App: config.App{
			Env:               "test",
			CORSOrigins:       []string{"http://localhost:5173"},
			RequestTimeoutSec: 10,
			MaxConcurrent:     16,
			MaxBodyMB:         1,
			RateLimit:         config.RateLimit{RPS: 1000, Burst: 1000},
			AuthRateLimit:     config.RateLimit{RPS: 1000, Burst: 1000},
		},
		JWT: config.JWT{
			Issuer:          "test",
			AccessSecret:    "access-secret",
			AccessTTLMin:    15,
			RefreshSecret:   "refresh-secret",
			RefreshTTLHours: 1,
		},
		DB:     config.DB{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"},
		Upload: config.Upload{Dir: t.TempDir(), PublicPrefix: "/uploads", MaxFileMB: 1, MaxFiles: 3, LogoMaxMB: 1},
		Auth:   config.Auth{BcryptCost: 4},
	}
	log := zap.NewNop()

	db, err := app.OpenDB(cfg, log)
	require.NoError(t, err)
	_, err = repo.NewMigrator(db).Up(context.Background())
	require.NoError(t, err)
	a, err := app.New(cfg, log, db)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	r := NewAPIEngine(Deps{
		Log:    log,
		DB:     db,
		Access: a.Access,
		App:    cfg.App,
		Upload: cfg.Upload,
		Modules: []Module{
			handler.NewAuthHandler(a.Auth),
			handler.NewUserHandler(a.Users),
			handler.NewListingHandler(a.Listings),
			handler.NewCatalogHandler(a.Catalog),
			handler.NewLeadHandler(a.Leads),
			handler.NewSettingsHandler(a.Settings),
		},
	})

	s := &testServer{t: t, r: r, app: a}
	_, err = a.Auth.CreateAdmin(context.Background(), "Root", "root@example.com", "secret1")
	require.NoError(t, err)
	s.admin = s.login("root@example.com", "secret1")
	return s
}

func (s *testServer) do(method, path, token, body string) (int, gjson.Result) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w.Code, gjson.ParseBytes(w.Body.Bytes())
}

func (s *testServer) register(email string) gjson.Result {
	s.t.Helper()
	code, b := s.do(http.MethodPost, "/api/auth/register", "", `{"name":"Ana","email":"`+email+`","password":"secret1"}`)
	require.Equal(s.t, http.StatusCreated, code, b.Raw)
	return b.Get("data")
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	code, b := s.do(http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusOK, code, b.Raw)
	return b.Get("data.access_token").String()
}

const listingBody = `{"title":"Road bike","category":"sports","condition":"used","price":300,"location":"Porto","description":"light frame, new tyres"}`

func (s *testServer) approvedListing(token string) string {
	s.t.Helper()
	code, b := s.do(http.MethodPost, "/api/listings", token, listingBody)
	require.Equal(s.t, http.StatusCreated, code, b.Raw)
	id := b.Get("data.id").String()
	code, b = s.do(http.MethodPatch, "/api/listings/admin/"+id+"/approve", s.admin, "")
	require.Equal(s.t, http.StatusOK, code, b.Raw)
	return id
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, b := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", b.Get("status").String())
	assert.Equal(t, "connected", b.Get("database").String())
	assert.Equal(t, "test", b.Get("environment").String())
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	code, b := s.do(http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.EqualValues(t, http.StatusNotFound, b.Get("code").Int())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	reg := s.register("ana@example.com")
	assert.Equal(t, "user", reg.Get("user.role").String())
	assert.False(t, reg.Get("user.password_hash").Exists())

	code, b := s.do(http.MethodPost, "/api/auth/register", "", `{"name":"Ana","email":"ANA@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.EqualValues(t, http.StatusConflict, b.Get("code").Int())

	code, _ = s.do(http.MethodPost, "/api/auth/register", "", `{"name":"A","email":"bad","password":"1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodGet, "/api/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, b = s.do(http.MethodGet, "/api/users/me", reg.Get("access_token").String(), "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ana@example.com", b.Get("data.email").String())

	// camelCase keys are accepted
	rt := reg.Get("refresh_token").String()
	code, b = s.do(http.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+rt+`"}`)
	require.Equal(t, http.StatusOK, code, b.Raw)
	next := b.Get("data.refresh_token").String()

	code, _ = s.do(http.MethodPost, "/api/auth/refresh", "", `{"refresh_token":"`+rt+`"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, b = s.do(http.MethodPost, "/api/auth/logout", "", `{"refresh_token":"`+next+`"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "logged out", b.Get("data.message").String())
	code, _ = s.do(http.MethodPost, "/api/auth/refresh", "", `{"refresh_token":"`+next+`"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/auth/logout", "", `not json`)
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminGuard(t *testing.T) {
	s := newTestServer(t)
	user := s.register("ana@example.com").Get("access_token").String()

	code, _ := s.do(http.MethodGet, "/api/admin/users", user, "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/api/admin/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, b := s.do(http.MethodGet, "/api/admin/users", s.admin, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, b.Get("data").Array(), 2)
}

func TestBlockUser(t *testing.T) {
	s := newTestServer(t)
	reg := s.register("ana@example.com")
	id := reg.Get("user.id").String()

	code, b := s.do(http.MethodPatch, "/api/admin/users/"+id+"/block", s.admin, "")
	require.Equal(t, http.StatusOK, code, b.Raw)
	assert.True(t, b.Get("data.is_blocked").Bool())

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPost, "/api/auth/refresh", "", `{"refresh_token":"`+reg.Get("refresh_token").String()+`"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestFeaturedCap(t *testing.T) {
	s := newTestServer(t)
	user := s.register("ana@example.com").Get("access_token").String()

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, s.approvedListing(user))
	}
	for _, id := range ids[:3] {
		code, b := s.do(http.MethodPatch, "/api/listings/"+id+"/featured", s.admin, `{"isFeatured":true}`)
		require.Equal(t, http.StatusOK, code, b.Raw)
		assert.True(t, b.Get("data.is_featured").Bool())
	}
	code, b := s.do(http.MethodPatch, "/api/listings/"+ids[3]+"/featured", s.admin, `{"is_featured":true}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, b.Get("msg").String(), "featured limit")

	code, _ = s.do(http.MethodPatch, "/api/listings/"+ids[3]+"/featured", user, `{"is_featured":true}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPatch, "/api/listings/"+ids[3]+"/featured", s.admin, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListingVisibility(t *testing.T) {
	s := newTestServer(t)
	owner := s.register("ana@example.com").Get("access_token").String()
	other := s.register("bo@example.com").Get("access_token").String()

	code, b := s.do(http.MethodPost, "/api/listings", owner, listingBody)
	require.Equal(t, http.StatusCreated, code, b.Raw)
	id := b.Get("data.id").String()
	assert.False(t, b.Get("data.is_approved").Bool())

	code, _ = s.do(http.MethodGet, "/api/listings/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/api/listings/"+id+"/owner", other, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/api/listings/"+id+"/owner", owner, "")
	assert.Equal(t, http.StatusOK, code)

	code, b = s.do(http.MethodPatch, "/api/listings/admin/"+id+"/approve", s.admin, "")
	require.Equal(t, http.StatusOK, code, b.Raw)

	code, b = s.do(http.MethodGet, "/api/listings?priceMin=100&limit=500", "", "")
	require.Equal(t, http.StatusOK, code, b.Raw)
	assert.Len(t, b.Get("data.items").Array(), 1)
	assert.EqualValues(t, 50, b.Get("data.limit").Int())

	code, _ = s.do(http.MethodPatch, "/api/listings/"+id+"/status", owner, `{"status":"suspended"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, b = s.do(http.MethodPatch, "/api/listings/"+id+"/status", owner, `{"status":"paused"}`)
	require.Equal(t, http.StatusOK, code, b.Raw)

	code, b = s.do(http.MethodGet, "/api/listings", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, b.Get("data.items").Array())

	code, _ = s.do(http.MethodDelete, "/api/listings/"+id, other, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodDelete, "/api/listings/"+id, owner, "")
	assert.Equal(t, http.StatusOK, code)
	code, b = s.do(http.MethodGet, "/api/listings/me", owner, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, b.Get("data").Array())
}

func TestPublicCompany(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(http.MethodPut, "/api/settings/company", "", `{"company_name":"ACME"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, b := s.do(http.MethodPut, "/api/settings/company", s.admin, `{"companyName":"ACME","email":"hi@acme.io"}`)
	require.Equal(t, http.StatusOK, code, b.Raw)

	code, b = s.do(http.MethodGet, "/api/company", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ACME", b.Get("data.company_name").String())
	assert.Equal(t, "hi@acme.io", b.Get("data.email").String())
}
