package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/ez"
)

// UserHandler serves the caller's profile and admin account moderation.
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler { return &UserHandler{svc: s} }

type profileIn struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone"    binding:"omitempty,max=32"`
	Location *string `json:"location" binding:"omitempty,max=120"`
}

func (h *UserHandler) Mount(r Routes) {
	me := r.User("/users")

	ez.RegisterAction(me, ez.Action[empty, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *empty) (*domain.User, error) {
			return h.svc.Me(c.Request.Context(), ez.Actor(c))
		},
	})

	ez.RegisterAction(me, ez.Action[profileIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/me",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *profileIn) (*domain.User, error) {
			if in.Phone != nil && *in.Phone != "" && len(*in.Phone) < 6 {
				return nil, domain.Invalid("phone must have at least 6 characters")
			}
			return h.svc.UpdateMe(c.Request.Context(), ez.Actor(c), domain.ProfilePatch{
				Name:     in.Name,
				Phone:    in.Phone,
				Location: in.Location,
			})
		},
	})

	admin := r.AdminGroup("/admin")

	ez.RegisterAction(admin, ez.Action[empty, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *empty) ([]domain.User, error) {
			return h.svc.List(c.Request.Context())
		},
	})

	for path, blocked := range map[string]bool{"/users/:id/block": true, "/users/:id/unblock": false} {
		blocked := blocked
		ez.RegisterAction(admin, ez.Action[empty, *domain.User]{
			Method: http.MethodPatch,
			Path:   path,
			Binder: ez.BindNone,
			Auth:   true,
			Roles:  []string{domain.RoleAdmin},
			Handler: func(c *gin.Context, _ *empty) (*domain.User, error) {
				return h.svc.SetBlocked(c.Request.Context(), ez.Actor(c), c.Param("id"), blocked)
			},
		})
	}
}
