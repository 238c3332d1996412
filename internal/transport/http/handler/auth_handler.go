package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/ez"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(s *service.AuthService) *AuthHandler { return &AuthHandler{svc: s} }

func (h *AuthHandler) Priority() int { return 10 }

type registerIn struct {
	Name     string `json:"name"     binding:"required,min=2,max=120"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Phone    string `json:"phone"    binding:"omitempty,min=6,max=32"`
	Location string `json:"location" binding:"omitempty,max=120"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshIn struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (h *AuthHandler) Mount(r Routes) {
	g := r.API.Group("/auth")
	limited := g.Group("", r.AuthLimit)

	ez.RegisterAction(limited, ez.Action[registerIn, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *registerIn) (*service.AuthResult, error) {
			return h.svc.Register(c.Request.Context(), service.RegisterInput{
				Name:     in.Name,
				Email:    in.Email,
				Password: in.Password,
				Phone:    optional(in.Phone),
				Location: optional(in.Location),
			})
		},
	})

	ez.RegisterAction(limited, ez.Action[loginIn, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.AuthResult, error) {
			return h.svc.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	ez.RegisterAction(limited, ez.Action[refreshIn, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/refresh",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *refreshIn) (*service.AuthResult, error) {
			return h.svc.Refresh(c.Request.Context(), in.RefreshToken)
		},
	})

	// logout never fails; unreadable bodies and bad tokens are ignored
	ez.RegisterAction(g, ez.Action[empty, message]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *empty) (message, error) {
			raw, _ := io.ReadAll(c.Request.Body)
			if body, err := ez.SnakeKeys(raw); err == nil {
				if tok := gjson.GetBytes(body, "refresh_token").String(); tok != "" {
					h.svc.Logout(c.Request.Context(), tok)
				}
			}
			return message{Message: "logged out"}, nil
		},
	})
}
