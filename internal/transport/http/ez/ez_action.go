package ez

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"marketplace-api/internal/domain"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ { return EZ{g: g, log: l} }

// Group returns a sub group sharing the logger.
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), log: e.log}
}

type Binder string

const (
	BindJSON  Binder = "json"  // body, keys normalized to snake_case
	BindQuery Binder = "query" // ?a=b
	BindNone  Binder = "none"  // handler reads c.Param / multipart itself
)

// Action is one endpoint: I is the bound input, O the response data.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool
	Roles   []string
	Status  int // success status, 200 when zero
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			if c.GetString(mdw.KeyUserID) == "" {
				resp.Abort(c, resp.CodeUnauthorized, "unauthorized")
				return
			}
			if len(a.Roles) > 0 && !hasRole(c.GetString(mdw.KeyRole), a.Roles) {
				resp.Abort(c, resp.CodeForbidden, "forbidden")
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = bindJSON(c, &in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			var mbe *http.MaxBytesError
			if errors.As(bindErr, &mbe) {
				resp.Abort(c, resp.CodeTooLarge, "request body too large")
				return
			}
			resp.Abort(c, resp.CodeBadRequest, bindMessage(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, e.log, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		resp.JSON(c, status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func bindJSON(c *gin.Context, out any) error {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	body, err := SnakeKeys(raw)
	if err != nil {
		return err
	}
	return binding.JSON.BindBody(body, out)
}

// StatusOf maps an error onto the HTTP status it is reported with.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrPrecondition):
		return resp.CodeBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return resp.CodeUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return resp.CodeForbidden
	case errors.Is(err, domain.ErrNotFound):
		return resp.CodeNotFound
	case errors.Is(err, domain.ErrConflict):
		return resp.CodeConflict
	case errors.Is(err, context.DeadlineExceeded):
		return resp.CodeTimeout
	default:
		return resp.CodeServerError
	}
}

// Fail writes err as an error response. Server side failures are logged and
// answered with a generic message.
func Fail(c *gin.Context, l *zap.Logger, err error) {
	code := StatusOf(err)
	if code >= 500 {
		l.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		resp.Abort(c, code, "")
		return
	}
	resp.Abort(c, code, err.Error())
}

// Actor is the authenticated caller. Only valid behind the auth middleware.
func Actor(c *gin.Context) domain.Actor {
	return domain.Actor{UserID: c.GetString(mdw.KeyUserID), Role: c.GetString(mdw.KeyRole)}
}

// OptionalActor returns nil for anonymous requests.
func OptionalActor(c *gin.Context) *domain.Actor {
	if c.GetString(mdw.KeyUserID) == "" {
		return nil
	}
	a := Actor(c)
	return &a
}
