package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/ez"
)

type ListingHandler struct {
	svc *service.ListingService
}

func NewListingHandler(s *service.ListingService) *ListingHandler { return &ListingHandler{svc: s} }

type listingIn struct {
	Title       string           `json:"title"        binding:"required,min=3,max=160"`
	Category    string           `json:"category"     binding:"required,max=80"`
	Condition   string           `json:"condition"    binding:"required,max=80"`
	Price       *decimal.Decimal `json:"price"        binding:"required"`
	Location    string           `json:"location"     binding:"required,min=2,max=120"`
	Description string           `json:"description"  binding:"required,min=10"`
	Status      string           `json:"status"       binding:"omitempty,listingstatus"`
	SourceType  string           `json:"source_type"  binding:"omitempty,sourcetype"`
	SourceName  *string          `json:"source_name"  binding:"omitempty,max=80"`
	ExternalURL *string          `json:"external_url" binding:"omitempty,max=500"`
	ExternalRef *string          `json:"external_ref" binding:"omitempty,max=120"`
}

type listingPatchIn struct {
	Title       *string          `json:"title"        binding:"omitempty,min=3,max=160"`
	Category    *string          `json:"category"     binding:"omitempty,min=1,max=80"`
	Condition   *string          `json:"condition"    binding:"omitempty,min=1,max=80"`
	Price       *decimal.Decimal `json:"price"`
	Location    *string          `json:"location"     binding:"omitempty,min=2,max=120"`
	Description *string          `json:"description"  binding:"omitempty,min=10"`
	Status      *string          `json:"status"       binding:"omitempty,listingstatus"`
	SourceType  *string          `json:"source_type"  binding:"omitempty,sourcetype"`
	SourceName  *string          `json:"source_name"  binding:"omitempty,max=80"`
	ExternalURL *string          `json:"external_url" binding:"omitempty,max=500"`
	ExternalRef *string          `json:"external_ref" binding:"omitempty,max=120"`
}

type statusIn struct {
	Status string `json:"status" binding:"required,listingstatus"`
}

type featuredIn struct {
	IsFeatured *bool `json:"is_featured" binding:"required"`
}

type importIn struct {
	ExternalURL string `json:"external_url" binding:"required,max=500"`
}

type reorderIn struct {
	Orders []struct {
		ID        string `json:"id"         binding:"required"`
		SortOrder int    `json:"sort_order" binding:"gte=0"`
	} `json:"orders" binding:"required,min=1,dive"`
}

type filterIn struct {
	Search    string   `form:"search"`
	Category  string   `form:"category"`
	Condition string   `form:"condition"`
	Location  string   `form:"location"`
	PriceMin  *float64 `form:"priceMin"  binding:"omitempty,gte=0"`
	PriceMax  *float64 `form:"priceMax"  binding:"omitempty,gte=0"`
	Page      int      `form:"page"`
	Limit     int      `form:"limit"`
}

func (h *ListingHandler) Mount(r Routes) {
	pub := r.API.Group("/listings")
	user := r.User("/listings")
	admin := r.AdminGroup("/listings")
	adminOnly := []string{domain.RoleAdmin}

	// public reads
	ez.RegisterAction(pub, ez.Action[filterIn, *service.ListingPage]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *filterIn) (*service.ListingPage, error) {
			return h.svc.ListPublic(c.Request.Context(), domain.ListingFilter{
				Search:    in.Search,
				Category:  in.Category,
				Condition: in.Condition,
				Location:  in.Location,
				PriceMin:  in.PriceMin,
				PriceMax:  in.PriceMax,
				Page:      in.Page,
				Limit:     in.Limit,
			})
		},
	})
	ez.RegisterAction(pub, ez.Action[empty, *domain.ListingDetail]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *empty) (*domain.ListingDetail, error) {
			return h.svc.GetPublic(c.Request.Context(), c.Param("id"))
		},
	})

	// owner
	ez.RegisterAction(user, ez.Action[empty, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *empty) ([]domain.Listing, error) {
			return h.svc.ListMine(c.Request.Context(), ez.Actor(c))
		},
	})
	ez.RegisterAction(user, ez.Action[empty, *domain.ListingDetail]{
		Method: http.MethodGet,
		Path:   "/:id/owner",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *empty) (*domain.ListingDetail, error) {
			return h.svc.GetForOwner(c.Request.Context(), ez.Actor(c), c.Param("id"))
		},
	})
	ez.RegisterAction(user.Group("", r.AuthLimit), ez.Action[listingIn, *domain.Listing]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *listingIn) (*domain.Listing, error) {
			return h.svc.Create(c.Request.Context(), ez.Actor(c), service.ListingInput{
				Title:       in.Title,
				Category:    in.Category,
				Condition:   in.Condition,
				Price:       *in.Price,
				Location:    in.Location,
				Description: in.Description,
				Status:      in.Status,
				SourceType:  in.SourceType,
				SourceName:  in.SourceName,
				ExternalURL: in.ExternalURL,
				ExternalRef: in.ExternalRef,
			})
		},
	})
	ez.RegisterAction(user, ez.Action[importIn, *service.ImportedLink]{
		Method: http.MethodPost,
		Path:   "/import-link",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *importIn) (*service.ImportedLink, error) {
			return h.svc.ImportLink(in.ExternalURL)
		},
	})
	ez.RegisterAction(user, ez.Action[listingPatchIn, *domain.Listing]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *listingPatchIn) (*domain.Listing, error) {
			return h.svc.Update(c.Request.Context(), ez.Actor(c), c.Param("id"), domain.ListingPatch{
				Title:       in.Title,
				Category:    in.Category,
				Condition:   in.Condition,
				Price:       in.Price,
				Location:    in.Location,
				Description: in.Description,
				Status:      in.Status,
				SourceType:  in.SourceType,
				SourceName:  in.SourceName,
				ExternalURL: in.ExternalURL,
				ExternalRef: in.ExternalRef,
			})
		},
	})
	ez.RegisterAction(user, ez.Action[statusIn, *domain.Listing]{
		Method: http.MethodPatch,
		Path:   "/:id/status",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *statusIn) (*domain.Listing, error) {
			return h.svc.ChangeStatus(c.Request.Context(), ez.Actor(c), c.Param("id"), in.Status)
		},
	})
	ez.RegisterAction(user, ez.Action[empty, message]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *empty) (message, error) {
			if err := h.svc.Delete(c.Request.Context(), ez.Actor(c), c.Param("id")); err != nil {
				return message{}, err
			}
			return message{Message: "listing removed"}, nil
		},
	})

	// images
	ez.RegisterAction(user, ez.Action[empty, []domain.ListingImage]{
		Method: http.MethodPost,
		Path:   "/:id/images",
		Binder: ez.BindNone,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *empty) ([]domain.ListingImage, error) {
			files, err := formFiles(c, "images")
			if err != nil {
				return nil, err
			}
			return h.svc.AddImages(c.Request.Context(), ez.Actor(c), c.Param("id"), files)
		},
	})
	ez.RegisterAction(user, ez.Action[empty, message]{
		Method: http.MethodDelete,
		Path:   "/:id/images/:imageId",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *empty) (message, error) {
			if err := h.svc.DeleteImage(c.Request.Context(), ez.Actor(c), c.Param("id"), c.Param("imageId")); err != nil {
				return message{}, err
			}
			return message{Message: "image removed"}, nil
		},
	})
	ez.RegisterAction(user, ez.Action[reorderIn, message]{
		Method: http.MethodPut,
		Path:   "/:id/images/order",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *reorderIn) (message, error) {
			orders := make([]domain.ImageOrder, 0, len(in.Orders))
			for _, o := range in.Orders {
				orders = append(orders, domain.ImageOrder{ID: o.ID, SortOrder: o.SortOrder})
			}
			if err := h.svc.ReorderImages(c.Request.Context(), ez.Actor(c), c.Param("id"), orders); err != nil {
				return message{}, err
			}
			return message{Message: "order updated"}, nil
		},
	})

	// moderation
	ez.RegisterAction(admin, ez.Action[empty, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/admin/all",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *empty) ([]domain.Listing, error) {
			return h.svc.ListAdmin(c.Request.Context())
		},
	})
	transitions := []struct {
		path string
		fn   func(*service.ListingService, *gin.Context, string) (*domain.Listing, error)
	}{
		{"/admin/:id/approve", func(s *service.ListingService, c *gin.Context, id string) (*domain.Listing, error) {
			return s.Approve(c.Request.Context(), id)
		}},
		{"/admin/:id/reject", func(s *service.ListingService, c *gin.Context, id string) (*domain.Listing, error) {
			return s.Reject(c.Request.Context(), id)
		}},
		{"/:id/suspend", func(s *service.ListingService, c *gin.Context, id string) (*domain.Listing, error) {
			return s.Suspend(c.Request.Context(), id)
		}},
		{"/:id/activate", func(s *service.ListingService, c *gin.Context, id string) (*domain.Listing, error) {
			return s.Activate(c.Request.Context(), id)
		}},
	}
	for _, t := range transitions {
		fn := t.fn
		ez.RegisterAction(admin, ez.Action[empty, *domain.Listing]{
			Method: http.MethodPatch,
			Path:   t.path,
			Binder: ez.BindNone,
			Auth:   true,
			Roles:  adminOnly,
			Handler: func(c *gin.Context, _ *empty) (*domain.Listing, error) {
				return fn(h.svc, c, c.Param("id"))
			},
		})
	}
	ez.RegisterAction(admin, ez.Action[featuredIn, *domain.Listing]{
		Method: http.MethodPatch,
		Path:   "/:id/featured",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *featuredIn) (*domain.Listing, error) {
			return h.svc.SetFeatured(c.Request.Context(), c.Param("id"), *in.IsFeatured)
		},
	})
}
