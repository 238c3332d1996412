package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/ez"
)

type LeadHandler struct {
	svc *service.LeadService
}

func NewLeadHandler(s *service.LeadService) *LeadHandler { return &LeadHandler{svc: s} }

type leadIn struct {
	ListingID *string `json:"listing_id" binding:"required_without=ServiceID,omitempty,uuid"`
	ServiceID *string `json:"service_id" binding:"omitempty,uuid"`
	Name      string  `json:"name"       binding:"required,min=2,max=120"`
	Email     string  `json:"email"      binding:"required,email"`
	Phone     string  `json:"phone"      binding:"omitempty,min=6,max=32"`
	Message   string  `json:"message"    binding:"required,min=5"`
}

type contactoIn struct {
	Name    string `json:"name"    binding:"required,min=2,max=120"`
	Email   string `json:"email"   binding:"required,email"`
	Contact string `json:"contact" binding:"required,min=6,max=64"`
	Message string `json:"message" binding:"required,min=10"`
}

func (h *LeadHandler) Mount(r Routes) {
	opt := r.API.Group("/leads", r.Optional)
	admin := r.AdminGroup("/leads/admin")
	adminOnly := []string{domain.RoleAdmin}

	ez.RegisterAction(opt, ez.Action[leadIn, *domain.Lead]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *leadIn) (*domain.Lead, error) {
			return h.svc.CreateLead(c.Request.Context(), ez.OptionalActor(c), service.LeadInput{
				ListingID: in.ListingID,
				ServiceID: in.ServiceID,
				Name:      in.Name,
				Email:     in.Email,
				Phone:     optional(in.Phone),
				Message:   in.Message,
			})
		},
	})

	ez.RegisterAction(admin, ez.Action[empty, []domain.ServiceLead]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *empty) ([]domain.ServiceLead, error) {
			return h.svc.ListServiceLeads(c.Request.Context())
		},
	})

	ez.RegisterAction(admin, ez.Action[empty, []domain.PurchaseLead]{
		Method: http.MethodGet,
		Path:   "/purchase",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *empty) ([]domain.PurchaseLead, error) {
			return h.svc.ListPurchaseLeads(c.Request.Context())
		},
	})

	ez.RegisterAction(r.API.Group("/contactos"), ez.Action[contactoIn, *domain.Contacto]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *contactoIn) (*domain.Contacto, error) {
			return h.svc.CreateContacto(c.Request.Context(), service.ContactoInput{
				Name:    in.Name,
				Email:   in.Email,
				Contact: in.Contact,
				Message: in.Message,
			})
		},
	})
}
