package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace-api/internal/domain"
)

type ListingRepo struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewListingRepo returns a repository whose locking transactions give up
// after lockTimeout on postgres. Zero keeps the server default.
func NewListingRepo(db *gorm.DB, lockTimeout time.Duration) *ListingRepo {
	return &ListingRepo{db: db, lockTimeout: lockTimeout}
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

func errListingNotFound() error { return domain.NotFound("listing not found") }

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *ListingRepo) find(ctx context.Context, conds ...any) (*domain.Listing, error) {
	var l domain.Listing
	err := r.db.WithContext(ctx).Take(&l, conds...).Error
	if isNotFound(err) {
		return nil, errListingNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *ListingRepo) FindOwned(ctx context.Context, id, userID string) (*domain.Listing, error) {
	return r.find(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *ListingRepo) FindApproved(ctx context.Context, id string) (*domain.Listing, error) {
	return r.find(ctx, "id = ? AND is_approved = ?", id, true)
}

func (r *ListingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Listing, error) {
	out := []domain.Listing{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *ListingRepo) ListAll(ctx context.Context) ([]domain.Listing, error) {
	out := []domain.Listing{}
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func (r *ListingRepo) ListPublic(ctx context.Context, f domain.ListingFilter) ([]domain.ListingSummary, error) {
	f.Normalize()

	cover := r.db.Model(&domain.ListingImage{}).
		Select("listing_images.url").
		Where("listing_images.listing_id = listings.id").
		Order("listing_images.sort_order asc, listing_images.created_at asc").
		Limit(1)

	q := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Select("listings.*, (?) AS cover_image_url", cover).
		Where("listings.is_approved = ? AND listings.status = ?", true, domain.StatusActive)

	if s := strings.TrimSpace(f.Search); s != "" {
		p := likePattern(s)
		q = q.Where("(LOWER(listings.title) LIKE ? OR LOWER(listings.description) LIKE ?)", p, p)
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		q = q.Where("LOWER(listings.category) = ?", strings.ToLower(s))
	}
	if s := strings.TrimSpace(f.Condition); s != "" {
		q = q.Where("LOWER(listings.condition) = ?", strings.ToLower(s))
	}
	if s := strings.TrimSpace(f.Location); s != "" {
		q = q.Where("LOWER(listings.location) LIKE ?", likePattern(s))
	}
	if f.PriceMin != nil {
		q = q.Where("listings.price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("listings.price <= ?", *f.PriceMax)
	}

	out := []domain.ListingSummary{}
	err := q.Order("listings.created_at desc").
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&out).Error
	return out, err
}

// setLockTimeout bounds row lock waits for the rest of the transaction.
func (r *ListingRepo) setLockTimeout(tx *gorm.DB) error {
	if r.lockTimeout <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())).Error
}

func lockListing(tx *gorm.DB, id, ownerID string) (*domain.Listing, error) {
	var l domain.Listing
	q := tx.Clauses(forUpdate).Where("id = ?", id)
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	err := q.Take(&l).Error
	if isNotFound(err) {
		return nil, errListingNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepo) Mutate(ctx context.Context, id, ownerID string, fn func(l *domain.Listing) (domain.Changes, error)) (*domain.Listing, error) {
	var out domain.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.setLockTimeout(tx); err != nil {
			return err
		}
		l, err := lockListing(tx, id, ownerID)
		if err != nil {
			return err
		}
		ch, err := fn(l)
		if err != nil {
			return err
		}
		if len(ch) > 0 {
			if err := tx.Model(&domain.Listing{}).Where("id = ?", id).Updates(map[string]any(ch)).Error; err != nil {
				return err
			}
		}
		return tx.Take(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetFeatured locks the candidate row first and then the featured set in id
// order, so concurrent toggles always acquire locks in the same order.
func (r *ListingRepo) SetFeatured(ctx context.Context, id string, on bool, capacity int) (*domain.Listing, error) {
	var out domain.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.setLockTimeout(tx); err != nil {
			return err
		}
		l, err := lockListing(tx, id, "")
		if err != nil {
			return err
		}
		if err := l.CheckFeature(on); err != nil {
			return err
		}
		if l.NeedsSlot(on) {
			var ids []string
			lockSet := func() error {
				ids = ids[:0]
				return tx.Model(&domain.Listing{}).
					Clauses(forUpdate).
					Where("is_featured = ? AND is_approved = ?", true, true).
					Order("id").
					Pluck("id", &ids).Error
			}
			// The first read waits for in-flight toggles holding the set. Under
			// READ COMMITTED it can miss a row they just featured, so the set
			// is read again with a fresh snapshot while the locks are held.
			if err := lockSet(); err != nil {
				return err
			}
			if err := lockSet(); err != nil {
				return err
			}
			if len(ids) >= capacity {
				return domain.Conflict(fmt.Sprintf("featured limit reached (%d)", capacity))
			}
		}
		if l.IsFeatured != on {
			if err := tx.Model(&domain.Listing{}).Where("id = ?", id).Update("is_featured", on).Error; err != nil {
				return err
			}
		}
		return tx.Take(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ListingRepo) SoftDelete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Listing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errListingNotFound()
	}
	return nil
}

func (r *ListingRepo) ListImages(ctx context.Context, listingID string) ([]domain.ListingImage, error) {
	out := []domain.ListingImage{}
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("sort_order asc, created_at asc").
		Find(&out).Error
	return out, err
}

// AddImages appends rows after the current highest sort order. The listing
// row is locked so concurrent uploads do not share positions.
func (r *ListingRepo) AddImages(ctx context.Context, listingID string, urls []string) ([]domain.ListingImage, error) {
	var out []domain.ListingImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockListing(tx, listingID, ""); err != nil {
			return err
		}
		var maxOrder int
		if err := tx.Model(&domain.ListingImage{}).
			Where("listing_id = ?", listingID).
			Select("COALESCE(MAX(sort_order), -1)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}
		out = make([]domain.ListingImage, len(urls))
		for i, u := range urls {
			out[i] = domain.ListingImage{ListingID: listingID, URL: u, SortOrder: maxOrder + 1 + i}
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ListingRepo) DeleteImage(ctx context.Context, listingID, imageID string) (*domain.ListingImage, error) {
	var img domain.ListingImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Take(&img, "id = ? AND listing_id = ?", imageID, listingID).Error
		if isNotFound(err) {
			return domain.NotFound("image not found")
		}
		if err != nil {
			return err
		}
		return tx.Delete(&domain.ListingImage{}, "id = ?", imageID).Error
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// ReorderImages applies every position or none of them.
func (r *ListingRepo) ReorderImages(ctx context.Context, listingID string, orders []domain.ImageOrder) error {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.ListingImage{}).
			Where("listing_id = ? AND id IN ?", listingID, ids).
			Count(&n).Error; err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return domain.NotFound("image not found")
		}
		for _, o := range orders {
			if err := tx.Model(&domain.ListingImage{}).
				Where("id = ? AND listing_id = ?", o.ID, listingID).
				Update("sort_order", o.SortOrder).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
