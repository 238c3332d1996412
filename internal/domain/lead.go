package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is a contact request about a listing or a service.
type Lead struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string   `gorm:"size:36" json:"user_id"`
	ListingID *string   `gorm:"size:36;index" json:"listing_id"`
	ServiceID *string   `gorm:"size:36;index" json:"service_id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Email     string    `gorm:"size:191;not null" json:"email"`
	Phone     *string   `gorm:"size:32" json:"phone"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Lead) TableName() string { return "leads_contacts" }

func (l *Lead) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type ServiceLead struct {
	ID          string    `json:"id"`
	ServiceID   *string   `json:"service_id"`
	ServiceName *string   `json:"service_name"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type PurchaseLead struct {
	ID               string    `json:"id"`
	ListingID        *string   `json:"listing_id"`
	ListingTitle     *string   `json:"listing_title"`
	ListingCategory  *string   `json:"listing_category"`
	ListingCondition *string   `json:"listing_condition"`
	CoverURL         *string   `json:"cover_url"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            *string   `json:"phone"`
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"created_at"`
}

// Contacto is a message sent through the general contact form.
type Contacto struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Email     string    `gorm:"size:191;not null" json:"email"`
	Contact   string    `gorm:"size:64;not null" json:"contact"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (Contacto) TableName() string { return "contactos" }

func (c *Contacto) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type LeadRepository interface {
	Create(ctx context.Context, l *Lead) error
	ListServiceLeads(ctx context.Context) ([]ServiceLead, error)
	ListPurchaseLeads(ctx context.Context) ([]PurchaseLead, error)
	CreateContacto(ctx context.Context, c *Contacto) error
}
