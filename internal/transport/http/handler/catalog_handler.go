package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/ez"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(s *service.CatalogService) *CatalogHandler { return &CatalogHandler{svc: s} }

type serviceIn struct {
	Name        string           `json:"name"        binding:"required,min=2,max=160"`
	Description string           `json:"description" binding:"required,min=5"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

type servicePatchIn struct {
	Name        *string          `json:"name"        binding:"omitempty,min=2,max=160"`
	Description *string          `json:"description" binding:"omitempty,min=5"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

func (h *CatalogHandler) Mount(r Routes) {
	pub := r.API.Group("/services")
	admin := r.AdminGroup("/services/admin")
	adminOnly := []string{domain.RoleAdmin}

	ez.RegisterAction(pub, ez.Action[empty, []domain.Service]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *empty) ([]domain.Service, error) {
			return h.svc.ListActive(c.Request.Context())
		},
	})

	ez.RegisterAction(admin, ez.Action[empty, []domain.Service]{
		Method: http.MethodGet,
		Path:   "/all",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *empty) ([]domain.Service, error) {
			return h.svc.ListAll(c.Request.Context())
		},
	})

	ez.RegisterAction(admin, ez.Action[serviceIn, *domain.Service]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *serviceIn) (*domain.Service, error) {
			return h.svc.Create(c.Request.Context(), service.ServiceInput{
				Name:        in.Name,
				Description: in.Description,
				Price:       in.Price,
				IsActive:    in.IsActive,
			})
		},
	})

	ez.RegisterAction(admin, ez.Action[servicePatchIn, *domain.Service]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *servicePatchIn) (*domain.Service, error) {
			return h.svc.Update(c.Request.Context(), c.Param("id"), domain.ServicePatch{
				Name:        in.Name,
				Description: in.Description,
				Price:       in.Price,
				IsActive:    in.IsActive,
			})
		},
	})

	ez.RegisterAction(admin, ez.Action[empty, message]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *empty) (message, error) {
			if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return message{}, err
			}
			return message{Message: "service removed"}, nil
		},
	})
}
