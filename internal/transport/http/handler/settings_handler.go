package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/ez"
)

type SettingsHandler struct {
	svc *service.SettingsService
}

func NewSettingsHandler(s *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: s}
}

type settingsIn struct {
	CompanyName *string `json:"company_name" binding:"omitempty,min=1,max=160"`
	NIF         *string `json:"nif"          binding:"omitempty,min=1,max=32"`
	Address     *string `json:"address"      binding:"omitempty,min=1,max=255"`
	SocialArea  *string `json:"social_area"  binding:"omitempty,min=1,max=255"`
	Phone       *string `json:"phone"        binding:"omitempty,min=3,max=32"`
	Email       *string `json:"email"        binding:"omitempty,email"`
}

func (h *SettingsHandler) Mount(r Routes) {
	pub := r.API.Group("")
	admin := r.AdminGroup("/settings")
	adminOnly := []string{domain.RoleAdmin}

	ez.RegisterAction(pub, ez.Action[empty, *domain.CompanySettings]{
		Method: http.MethodGet,
		Path:   "/settings/company",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *empty) (*domain.CompanySettings, error) {
			return h.svc.Get(c.Request.Context())
		},
	})
	ez.RegisterAction(pub, ez.Action[empty, *domain.PublicCompany]{
		Method: http.MethodGet,
		Path:   "/company",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *empty) (*domain.PublicCompany, error) {
			return h.svc.GetPublic(c.Request.Context())
		},
	})

	ez.RegisterAction(admin, ez.Action[settingsIn, *domain.CompanySettings]{
		Method: http.MethodPut,
		Path:   "/company",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *settingsIn) (*domain.CompanySettings, error) {
			return h.svc.Update(c.Request.Context(), domain.SettingsPatch{
				CompanyName: in.CompanyName,
				NIF:         in.NIF,
				Address:     in.Address,
				SocialArea:  in.SocialArea,
				Phone:       in.Phone,
				Email:       in.Email,
			})
		},
	})
	ez.RegisterAction(admin, ez.Action[empty, *domain.CompanySettings]{
		Method: http.MethodPost,
		Path:   "/company/logo",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *empty) (*domain.CompanySettings, error) {
			fh, err := c.FormFile("logo")
			if err != nil {
				return nil, domain.Invalid("logo file is required")
			}
			return h.svc.SetLogo(c.Request.Context(), fileInputs([]*multipart.FileHeader{fh})[0])
		},
	})
	ez.RegisterAction(admin, ez.Action[empty, *domain.CompanySettings]{
		Method: http.MethodDelete,
		Path:   "/company/logo",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *empty) (*domain.CompanySettings, error) {
			return h.svc.RemoveLogo(c.Request.Context())
		},
	})
}
