package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-api/internal/core/auth"
)

func engine(h ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(h...)
	r.Any("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(KeyUserID)+"|"+c.GetString(KeyRole))
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerIP(t *testing.T) {
	r := engine(RateLimitPerIP(0.001, 2))
	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}

func TestRateLimit_Global(t *testing.T) {
	r := engine(RateLimit(0.001, 1))
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "test", TTL: time.Minute}
	other := &auth.JWTer{Secret: []byte("other"), Issuer: "test", TTL: time.Minute}
	userTok, _, err := j.Issue("u1", "user")
	require.NoError(t, err)
	forged, _, err := other.Issue("u1", "admin")
	require.NoError(t, err)

	call := func(r http.Handler, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return serve(r, req)
	}

	r := engine(AuthJWT(j, ""))
	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+forged).Code)
	w := call(r, "Bearer "+userTok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1|user", w.Body.String())

	admin := engine(AuthJWT(j, ""), RequireRole("admin"))
	assert.Equal(t, http.StatusForbidden, call(admin, "Bearer "+userTok).Code)

	opt := engine(OptionalAuth(j))
	assert.Equal(t, "|", call(opt, "").Body.String())
	assert.Equal(t, "|", call(opt, "Bearer "+forged).Body.String())
	assert.Equal(t, "u1|user", call(opt, "Bearer "+userTok).Body.String())
}

func TestMaxBodyBytes(t *testing.T) {
	r := engine(MaxBodyBytes(8))
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("a", 64)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small"))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRequestID(t *testing.T) {
	r := engine(RequestID())
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("z", 200))
	got := serve(r, req).Header().Get(HeaderRequestID)
	assert.Len(t, got, 36)
}

func TestConcurrencyLimit_ReleasesSlots(t *testing.T) {
	r := engine(ConcurrencyLimit(1))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestMaskQuery(t *testing.T) {
	got := maskQuery(map[string][]string{
		"a":             {"1"},
		"token":         {"abc"},
		"Refresh_Token": {"def"},
	})
	assert.Equal(t, []string{"1"}, got["a"])
	assert.Equal(t, []string{"****"}, got["token"])
	assert.Equal(t, []string{"****"}, got["Refresh_Token"])
}
