package domain

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusClosed    = "closed"
	StatusSuspended = "suspended"

	SourceInternal = "internal"
	SourceExternal = "external"

	// MaxFeatured caps listings that are featured, approved and not deleted
	// at the same time.
	MaxFeatured = 3
)

// Moderation states derived from the stored columns.
const (
	StatePending   = "pending"
	StateApproved  = "approved"
	StateRejected  = "rejected"
	StateSuspended = "suspended"
	StateDeleted   = "deleted"
)

type Listing struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserID      string          `gorm:"size:36;not null;index" json:"user_id"`
	Title       string          `gorm:"size:160;not null" json:"title"`
	Category    string          `gorm:"size:80;not null;index" json:"category"`
	Condition   string          `gorm:"size:80;not null" json:"condition"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Location    string          `gorm:"size:120;not null" json:"location"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Status      string          `gorm:"size:16;not null;default:active;index" json:"status"`
	SourceType  string          `gorm:"size:16;not null;default:internal" json:"source_type"`
	SourceName  *string         `gorm:"size:80" json:"source_name"`
	ExternalURL *string         `gorm:"size:500" json:"external_url"`
	ExternalRef *string         `gorm:"size:120" json:"external_ref"`
	IsApproved  bool            `gorm:"not null;default:false;index" json:"is_approved"`
	IsFeatured  bool            `gorm:"not null;default:false" json:"is_featured"`
	RejectedAt  *time.Time      `json:"rejected_at"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Listing) TableName() string { return "listings" }

func (l *Listing) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusActive
	}
	if l.SourceType == "" {
		l.SourceType = SourceInternal
	}
	return nil
}

// State reports the moderation state of the listing.
func (l *Listing) State() string {
	switch {
	case l.DeletedAt.Valid:
		return StateDeleted
	case l.Status == StatusSuspended:
		return StateSuspended
	case l.IsApproved:
		return StateApproved
	case l.RejectedAt != nil:
		return StateRejected
	default:
		return StatePending
	}
}

// IsPublic reports whether the listing may show up in public search.
func (l *Listing) IsPublic() bool {
	return l.IsApproved && l.Status == StatusActive && !l.DeletedAt.Valid
}

func IsOwnerStatus(s string) bool {
	return s == StatusActive || s == StatusPaused || s == StatusClosed
}

// Changes is a set of column updates produced by a transition.
type Changes map[string]any

func (l *Listing) ChangeStatus(target string) (Changes, error) {
	if !IsOwnerStatus(target) {
		return nil, Invalid("status must be one of active, paused, closed")
	}
	if l.Status == StatusSuspended {
		return nil, Precondition("only an admin can reactivate a suspended listing")
	}
	if l.State() == StateRejected {
		return nil, Precondition("rejected listings cannot change status")
	}
	l.Status = target
	return Changes{"status": target}, nil
}

func (l *Listing) Approve() (Changes, error) {
	if l.State() == StateRejected {
		return nil, Precondition("rejected listings cannot be approved")
	}
	l.IsApproved = true
	return Changes{"is_approved": true}, nil
}

func (l *Listing) Reject(now time.Time) (Changes, error) {
	l.IsApproved = false
	l.IsFeatured = false
	l.RejectedAt = &now
	return Changes{"is_approved": false, "is_featured": false, "rejected_at": now}, nil
}

func (l *Listing) Suspend() (Changes, error) {
	if !l.IsApproved {
		return nil, Precondition("only approved listings can be suspended")
	}
	if l.Status != StatusActive {
		return nil, Precondition("only active listings can be suspended")
	}
	l.Status = StatusSuspended
	return Changes{"status": StatusSuspended}, nil
}

func (l *Listing) Activate() (Changes, error) {
	if !l.IsApproved {
		return nil, Precondition("only approved listings can be reactivated")
	}
	if l.Status != StatusSuspended {
		return nil, Precondition("only suspended listings can be reactivated")
	}
	l.Status = StatusActive
	return Changes{"status": StatusActive}, nil
}

// CheckFeature guards a featured toggle. Capacity is checked separately
// under the featured-set lock.
func (l *Listing) CheckFeature(on bool) error {
	if on && !l.IsApproved {
		return Precondition("only approved listings can be featured")
	}
	return nil
}

// NeedsSlot reports whether turning the flag on consumes a featured slot.
func (l *Listing) NeedsSlot(on bool) bool { return on && !l.IsFeatured }

// ListingPatch is an owner edit; nil fields are left untouched.
type ListingPatch struct {
	Title       *string
	Category    *string
	Condition   *string
	Price       *decimal.Decimal
	Location    *string
	Description *string
	Status      *string
	SourceType  *string
	SourceName  *string
	ExternalURL *string
	ExternalRef *string
}

func (l *Listing) Apply(p ListingPatch) (Changes, error) {
	ch := Changes{}
	if p.Status != nil && *p.Status != l.Status {
		sc, err := l.ChangeStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		for k, v := range sc {
			ch[k] = v
		}
	}
	set := func(col string, dst *string, v *string) {
		if v != nil {
			*dst = *v
			ch[col] = *v
		}
	}
	set("title", &l.Title, p.Title)
	set("category", &l.Category, p.Category)
	set("condition", &l.Condition, p.Condition)
	set("location", &l.Location, p.Location)
	set("description", &l.Description, p.Description)
	set("source_type", &l.SourceType, p.SourceType)
	if p.Price != nil {
		if p.Price.IsNegative() {
			return nil, Invalid("price must not be negative")
		}
		l.Price = *p.Price
		ch["price"] = *p.Price
	}
	if p.SourceName != nil {
		l.SourceName = p.SourceName
		ch["source_name"] = *p.SourceName
	}
	if p.ExternalURL != nil {
		l.ExternalURL = p.ExternalURL
		ch["external_url"] = *p.ExternalURL
	}
	if p.ExternalRef != nil {
		l.ExternalRef = p.ExternalRef
		ch["external_ref"] = *p.ExternalRef
	}
	if l.SourceType == SourceExternal && (l.ExternalURL == nil || *l.ExternalURL == "") {
		return nil, Invalid("external listings require an external url")
	}
	return ch, nil
}

// ListingFilter is the public search contract.
type ListingFilter struct {
	Search    string
	Category  string
	Condition string
	Location  string
	PriceMin  *float64
	PriceMax  *float64
	Page      int
	Limit     int
}

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

func (f *ListingFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

func (f ListingFilter) Offset() int { return (f.Page - 1) * f.Limit }

// ListingSummary is a search row annotated with its cover image.
type ListingSummary struct {
	Listing       `gorm:"embedded"`
	CoverImageURL *string `gorm:"column:cover_image_url" json:"cover_image_url"`
}

type ListingDetail struct {
	Listing
	Images []ListingImage `json:"images"`
}

type ListingImage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ListingID string    `gorm:"size:36;not null;index" json:"listing_id"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	Filename  string    `gorm:"-" json:"filename"`
}

func (ListingImage) TableName() string { return "listing_images" }

func (i *ListingImage) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i *ListingImage) AfterFind(*gorm.DB) error {
	i.Filename = path.Base(i.URL)
	return nil
}

func (i *ListingImage) AfterCreate(*gorm.DB) error {
	i.Filename = path.Base(i.URL)
	return nil
}

type ImageOrder struct {
	ID        string
	SortOrder int
}

type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	// FindByID returns a non-deleted listing regardless of approval.
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindOwned(ctx context.Context, id, userID string) (*Listing, error)
	FindApproved(ctx context.Context, id string) (*Listing, error)
	ListByUser(ctx context.Context, userID string) ([]Listing, error)
	ListAll(ctx context.Context) ([]Listing, error)
	ListPublic(ctx context.Context, f ListingFilter) ([]ListingSummary, error)
	// Mutate locks the listing row (scoped to ownerID when non-empty), runs
	// fn and persists its changes in one transaction.
	Mutate(ctx context.Context, id, ownerID string, fn func(l *Listing) (Changes, error)) (*Listing, error)
	// SetFeatured toggles the featured flag under the featured-set lock and
	// enforces the capacity.
	SetFeatured(ctx context.Context, id string, on bool, capacity int) (*Listing, error)
	SoftDelete(ctx context.Context, id, userID string) error

	ListImages(ctx context.Context, listingID string) ([]ListingImage, error)
	AddImages(ctx context.Context, listingID string, urls []string) ([]ListingImage, error)
	DeleteImage(ctx context.Context, listingID, imageID string) (*ListingImage, error)
	ReorderImages(ctx context.Context, listingID string, orders []ImageOrder) error
}
