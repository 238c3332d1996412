package service

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace-api/internal/core/upload"
	"marketplace-api/internal/domain"
)

type ImageLimits struct {
	MaxFiles int
	MaxBytes int64
}

type ListingService struct {
	repo   domain.ListingRepository
	files  FileStore
	limits ImageLimits
	log    *zap.Logger
	now    func() time.Time
}

func NewListingService(repo domain.ListingRepository, files FileStore, limits ImageLimits, l *zap.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		files:  files,
		limits: limits,
		log:    l,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type ListingInput struct {
	Title       string
	Category    string
	Condition   string
	Price       decimal.Decimal
	Location    string
	Description string
	Status      string
	SourceType  string
	SourceName  *string
	ExternalURL *string
	ExternalRef *string
}

type ListingPage struct {
	Items []domain.ListingSummary `json:"items"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type ImportedLink struct {
	ExternalURL string `json:"external_url"`
	SourceName  string `json:"source_name"`
}

func (s *ListingService) Create(ctx context.Context, actor domain.Actor, in ListingInput) (*domain.Listing, error) {
	required := [][2]string{
		{"title", in.Title}, {"category", in.Category}, {"condition", in.Condition},
		{"location", in.Location}, {"description", in.Description},
	}
	for _, f := range required {
		if strings.TrimSpace(f[1]) == "" {
			return nil, domain.Invalid(f[0] + " is required")
		}
	}
	if in.Price.IsNegative() {
		return nil, domain.Invalid("price must not be negative")
	}
	status := in.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !domain.IsOwnerStatus(status) {
		return nil, domain.Invalid("status must be one of active, paused, closed")
	}
	l := &domain.Listing{
		UserID:      actor.UserID,
		Title:       strings.TrimSpace(in.Title),
		Category:    strings.TrimSpace(in.Category),
		Condition:   strings.TrimSpace(in.Condition),
		Price:       in.Price,
		Location:    strings.TrimSpace(in.Location),
		Description: in.Description,
		Status:      status,
		ExternalRef: in.ExternalRef,
	}
	if err := s.applySource(l, in.SourceType, in.SourceName, in.ExternalURL); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	listingTransitions.WithLabelValues("create", "ok").Inc()
	return l, nil
}

func (s *ListingService) applySource(l *domain.Listing, sourceType string, name, rawURL *string) error {
	if rawURL != nil && strings.TrimSpace(*rawURL) == "" {
		rawURL = nil
	}
	if sourceType == "" && rawURL != nil {
		sourceType = domain.SourceExternal
	}
	switch sourceType {
	case "", domain.SourceInternal:
		l.SourceType = domain.SourceInternal
		l.SourceName = name
		return nil
	case domain.SourceExternal:
		if rawURL == nil {
			return domain.Invalid("external listings require an external url")
		}
		u, err := domain.NormalizeExternalURL(*rawURL)
		if err != nil {
			return err
		}
		l.SourceType = domain.SourceExternal
		l.ExternalURL = &u
		if name == nil || strings.TrimSpace(*name) == "" {
			n := domain.ExternalSourceName
			name = &n
		}
		l.SourceName = name
		return nil
	default:
		return domain.Invalid("source_type must be internal or external")
	}
}

func (s *ListingService) Update(ctx context.Context, actor domain.Actor, id string, p domain.ListingPatch) (*domain.Listing, error) {
	if p.SourceType != nil && *p.SourceType != domain.SourceInternal && *p.SourceType != domain.SourceExternal {
		return nil, domain.Invalid("source_type must be internal or external")
	}
	if p.ExternalURL != nil && *p.ExternalURL != "" {
		u, err := domain.NormalizeExternalURL(*p.ExternalURL)
		if err != nil {
			return nil, err
		}
		p.ExternalURL = &u
	}
	return s.transition(ctx, "update", id, actor.UserID, func(l *domain.Listing) (domain.Changes, error) {
		return l.Apply(p)
	})
}

func (s *ListingService) ChangeStatus(ctx context.Context, actor domain.Actor, id, status string) (*domain.Listing, error) {
	if !domain.IsOwnerStatus(status) {
		return nil, domain.Invalid("status must be one of active, paused, closed")
	}
	return s.transition(ctx, "status", id, actor.UserID, func(l *domain.Listing) (domain.Changes, error) {
		return l.ChangeStatus(status)
	})
}

func (s *ListingService) Approve(ctx context.Context, id string) (*domain.Listing, error) {
	return s.transition(ctx, "approve", id, "", (*domain.Listing).Approve)
}

func (s *ListingService) Reject(ctx context.Context, id string) (*domain.Listing, error) {
	now := s.now()
	return s.transition(ctx, "reject", id, "", func(l *domain.Listing) (domain.Changes, error) {
		return l.Reject(now)
	})
}

func (s *ListingService) Suspend(ctx context.Context, id string) (*domain.Listing, error) {
	return s.transition(ctx, "suspend", id, "", (*domain.Listing).Suspend)
}

func (s *ListingService) Activate(ctx context.Context, id string) (*domain.Listing, error) {
	return s.transition(ctx, "activate", id, "", (*domain.Listing).Activate)
}

func (s *ListingService) SetFeatured(ctx context.Context, id string, on bool) (*domain.Listing, error) {
	l, err := s.repo.SetFeatured(ctx, id, on, domain.MaxFeatured)
	action := "unfeature"
	if on {
		action = "feature"
	}
	res := outcome(err)
	listingTransitions.WithLabelValues(action, res).Inc()
	if res == "conflict" {
		featuredConflicts.Inc()
	}
	return l, err
}

func (s *ListingService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	err := s.repo.SoftDelete(ctx, id, actor.UserID)
	listingTransitions.WithLabelValues("delete", outcome(err)).Inc()
	return err
}

func (s *ListingService) transition(ctx context.Context, action, id, ownerID string, fn func(*domain.Listing) (domain.Changes, error)) (*domain.Listing, error) {
	l, err := s.repo.Mutate(ctx, id, ownerID, fn)
	listingTransitions.WithLabelValues(action, outcome(err)).Inc()
	return l, err
}

func (s *ListingService) withImages(ctx context.Context, l *domain.Listing) (*domain.ListingDetail, error) {
	imgs, err := s.repo.ListImages(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	return &domain.ListingDetail{Listing: *l, Images: imgs}, nil
}

func (s *ListingService) GetPublic(ctx context.Context, id string) (*domain.ListingDetail, error) {
	l, err := s.repo.FindApproved(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withImages(ctx, l)
}

func (s *ListingService) GetForOwner(ctx context.Context, actor domain.Actor, id string) (*domain.ListingDetail, error) {
	l, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.withImages(ctx, l)
}

// authorize loads a listing the actor may manage. Listings of other users
// are reported as missing.
func (s *ListingService) authorize(ctx context.Context, actor domain.Actor, id string) (*domain.Listing, error) {
	if actor.IsAdmin() {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.FindOwned(ctx, id, actor.UserID)
}

func (s *ListingService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Listing, error) {
	return s.repo.ListByUser(ctx, actor.UserID)
}

func (s *ListingService) ListAdmin(ctx context.Context) ([]domain.Listing, error) {
	return s.repo.ListAll(ctx)
}

func (s *ListingService) ListPublic(ctx context.Context, f domain.ListingFilter) (*ListingPage, error) {
	f.Normalize()
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return nil, domain.Invalid("priceMin must not exceed priceMax")
	}
	items, err := s.repo.ListPublic(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListingPage{Items: items, Page: f.Page, Limit: f.Limit}, nil
}

func (s *ListingService) ImportLink(raw string) (*ImportedLink, error) {
	u, err := domain.NormalizeExternalURL(raw)
	if err != nil {
		return nil, err
	}
	return &ImportedLink{ExternalURL: u, SourceName: domain.ExternalSourceName}, nil
}

// AddImages stores the files and appends them to the listing gallery. Files
// already written are removed when a later step fails.
func (s *ListingService) AddImages(ctx context.Context, actor domain.Actor, listingID string, files []FileInput) ([]domain.ListingImage, error) {
	if len(files) == 0 {
		return nil, domain.Invalid("no files uploaded")
	}
	if s.limits.MaxFiles > 0 && len(files) > s.limits.MaxFiles {
		return nil, domain.Invalid("too many files")
	}
	if _, err := s.repo.FindOwned(ctx, listingID, actor.UserID); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	cleanup := func() {
		for _, u := range urls {
			if err := s.files.Remove(u); err != nil {
				s.log.Warn("remove orphan upload", zap.String("url", u), zap.Error(err))
			}
		}
	}
	opts := upload.SaveOpts{
		Dir:      path.Join("listings", listingID),
		MaxBytes: s.limits.MaxBytes,
		Allowed:  upload.ImageTypes,
	}
	for _, f := range files {
		u, err := saveFile(s.files, f, opts)
		if err != nil {
			cleanup()
			return nil, err
		}
		urls = append(urls, u)
	}
	imgs, err := s.repo.AddImages(ctx, listingID, urls)
	if err != nil {
		cleanup()
		return nil, err
	}
	return imgs, nil
}

func (s *ListingService) DeleteImage(ctx context.Context, actor domain.Actor, listingID, imageID string) error {
	if _, err := s.authorize(ctx, actor, listingID); err != nil {
		return err
	}
	img, err := s.repo.DeleteImage(ctx, listingID, imageID)
	if err != nil {
		return err
	}
	if err := s.files.Remove(img.URL); err != nil {
		s.log.Warn("remove image file", zap.String("url", img.URL), zap.Error(err))
	}
	return nil
}

func (s *ListingService) ReorderImages(ctx context.Context, actor domain.Actor, listingID string, orders []domain.ImageOrder) error {
	if len(orders) == 0 {
		return domain.Invalid("order must not be empty")
	}
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if o.ID == "" {
			return domain.Invalid("image id is required")
		}
		if _, dup := seen[o.ID]; dup {
			return domain.Invalid("duplicate image id " + o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	if _, err := s.authorize(ctx, actor, listingID); err != nil {
		return err
	}
	return s.repo.ReorderImages(ctx, listingID, orders)
}
