package ez

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace-api/internal/domain"
	mdw "marketplace-api/internal/transport/http/middleware"
)

func TestSnakeKeys(t *testing.T) {
	out, err := SnakeKeys([]byte(`{"externalUrl":"a","sourceType":"external","nested":{"sortOrder":1},"orders":[{"sortOrder":2}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"external_url":"a","source_type":"external","nested":{"sort_order":1},"orders":[{"sort_order":2}]}`, string(out))

	out, err = SnakeKeys([]byte(`{"externalURL":"b"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"external_url":"b"}`, string(out))

	// explicit snake_case wins regardless of order
	out, err = SnakeKeys([]byte(`{"external_url":"snake","externalUrl":"camel"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"external_url":"snake"}`, string(out))
	out, err = SnakeKeys([]byte(`{"externalUrl":"camel","external_url":"snake"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"external_url":"snake"}`, string(out))

	out, err = SnakeKeys([]byte("  "))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	_, err = SnakeKeys([]byte(`{"a":`))
	assert.ErrorIs(t, err, errMalformedJSON)
}

func TestToSnake(t *testing.T) {
	cases := map[string]string{
		"priceMin":     "price_min",
		"is_featured":  "is_featured",
		"refreshToken": "refresh_token",
		"ID":           "id",
		"imageId":      "image_id",
		"externalURL":  "external_url",
		"HTTPSPort":    "https_port",
		"logoURLSmall": "logo_url_small",
		"Name":         "name",
		"":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, toSnake(in), in)
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Invalid("x"), http.StatusBadRequest},
		{domain.Precondition("x"), http.StatusBadRequest},
		{domain.Unauthorized("x"), http.StatusUnauthorized},
		{domain.Forbidden("x"), http.StatusForbidden},
		{domain.NotFound("x"), http.StatusNotFound},
		{domain.Conflict("x"), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.Conflict("x")), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

type echoIn struct {
	SourceType string `json:"source_type" binding:"required,sourcetype"`
	Status     string `json:"status"      binding:"omitempty,listingstatus"`
}

type body struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newEngine(t *testing.T, withUser, role string) (*gin.Engine, EZ) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	r := gin.New()
	g := r.Group("/api", func(c *gin.Context) {
		if withUser != "" {
			c.Set(mdw.KeyUserID, withUser)
			c.Set(mdw.KeyRole, role)
		}
		c.Next()
	})
	return r, New(g, zap.NewNop())
}

func do(t *testing.T, r http.Handler, method, path, payload string) (int, body) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return w.Code, b
}

func TestRegisterAction_Binding(t *testing.T) {
	r, e := newEngine(t, "", "")
	RegisterAction(e, Action[echoIn, echoIn]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Status: http.StatusCreated,
		Handler: func(_ *gin.Context, in *echoIn) (echoIn, error) {
			return *in, nil
		},
	})

	code, b := do(t, r, http.MethodPost, "/api/echo", `{"sourceType":"external","status":"paused"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 0, b.Code)
	assert.JSONEq(t, `{"source_type":"external","status":"paused"}`, string(b.Data))

	code, b = do(t, r, http.MethodPost, "/api/echo", `{"source_type":"other"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "source_type must be internal or external", b.Msg)

	code, b = do(t, r, http.MethodPost, "/api/echo", `{"source_type":"internal","status":"suspended"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "status must be one of active, paused, closed", b.Msg)

	code, b = do(t, r, http.MethodPost, "/api/echo", `{`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "malformed JSON body", b.Msg)

	code, b = do(t, r, http.MethodPost, "/api/echo", ``)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "source_type is required", b.Msg)
}

func TestRegisterAction_AuthAndErrors(t *testing.T) {
	handler := func(_ *gin.Context, _ *struct{}) (string, error) { return "", domain.Conflict("taken") }
	boom := func(_ *gin.Context, _ *struct{}) (string, error) { return "", errors.New("secret detail") }

	anon, e := newEngine(t, "", "")
	RegisterAction(e, Action[struct{}, string]{Method: http.MethodGet, Path: "/x", Binder: BindNone, Auth: true, Handler: handler})
	code, _ := do(t, anon, http.MethodGet, "/api/x", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	user, e := newEngine(t, "u1", domain.RoleUser)
	RegisterAction(e, Action[struct{}, string]{Method: http.MethodGet, Path: "/x", Binder: BindNone, Auth: true, Roles: []string{domain.RoleAdmin}, Handler: handler})
	RegisterAction(e, Action[struct{}, string]{Method: http.MethodGet, Path: "/y", Binder: BindNone, Auth: true, Handler: handler})
	RegisterAction(e, Action[struct{}, string]{Method: http.MethodGet, Path: "/z", Binder: BindNone, Handler: boom})

	code, _ = do(t, user, http.MethodGet, "/api/x", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, b := do(t, user, http.MethodGet, "/api/y", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, http.StatusConflict, b.Code)
	assert.Equal(t, "taken", b.Msg)

	code, b = do(t, user, http.MethodGet, "/api/z", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, b.Msg, "secret")
}
