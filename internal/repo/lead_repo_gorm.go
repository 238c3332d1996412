package repo

import (
	"context"

	"gorm.io/gorm"

	"marketplace-api/internal/domain"
)

type LeadRepo struct{ db *gorm.DB }

func NewLeadRepo(db *gorm.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LeadRepo) CreateContacto(ctx context.Context, c *domain.Contacto) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *LeadRepo) ListServiceLeads(ctx context.Context) ([]domain.ServiceLead, error) {
	out := []domain.ServiceLead{}
	err := r.db.WithContext(ctx).
		Table("leads_contacts AS leads").
		Select(`leads.id, leads.service_id, services.name AS service_name,
			leads.name, leads.email, leads.phone, leads.message, leads.created_at`).
		Joins("LEFT JOIN services ON services.id = leads.service_id").
		Where("leads.service_id IS NOT NULL").
		Order("leads.created_at desc").
		Scan(&out).Error
	return out, err
}

func (r *LeadRepo) ListPurchaseLeads(ctx context.Context) ([]domain.PurchaseLead, error) {
	cover := r.db.Model(&domain.ListingImage{}).
		Select("listing_images.url").
		Where("listing_images.listing_id = leads.listing_id").
		Order("listing_images.sort_order asc, listing_images.created_at asc").
		Limit(1)

	out := []domain.PurchaseLead{}
	err := r.db.WithContext(ctx).
		Table("leads_contacts AS leads").
		Select(`leads.id, leads.listing_id, listings.title AS listing_title,
			listings.category AS listing_category, listings.condition AS listing_condition,
			(?) AS cover_url, leads.name, leads.email, leads.phone, leads.message, leads.created_at`, cover).
		Joins("LEFT JOIN listings ON listings.id = leads.listing_id").
		Where("leads.listing_id IS NOT NULL").
		Order("leads.created_at desc").
		Scan(&out).Error
	return out, err
}
