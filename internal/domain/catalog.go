package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is an offering of the company (inspection, financing, ...).
type Service struct {
	ID          string              `gorm:"primaryKey;size:36" json:"id"`
	Name        string              `gorm:"size:120;not null" json:"name"`
	Description string              `gorm:"type:text;not null" json:"description"`
	Price       decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"price"`
	IsActive    bool                `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (Service) TableName() string { return "services" }

func (s *Service) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type ServicePatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	IsActive    *bool
}

type ServiceRepository interface {
	Create(ctx context.Context, s *Service) error
	ListActive(ctx context.Context) ([]Service, error)
	ListAll(ctx context.Context) ([]Service, error)
	Update(ctx context.Context, id string, p ServicePatch) (*Service, error)
	Delete(ctx context.Context, id string) error
}
