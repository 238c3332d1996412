package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"marketplace-api/internal/domain"
)

// CatalogService manages the company's service offerings.
type CatalogService struct {
	repo domain.ServiceRepository
}

func NewCatalogService(repo domain.ServiceRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

type ServiceInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	IsActive    *bool
}

func (s *CatalogService) ListActive(ctx context.Context) ([]domain.Service, error) {
	return s.repo.ListActive(ctx)
}

func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Service, error) {
	return s.repo.ListAll(ctx)
}

func (s *CatalogService) Create(ctx context.Context, in ServiceInput) (*domain.Service, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, domain.Invalid("price must not be negative")
	}
	svc := &domain.Service{Name: name, Description: in.Description, IsActive: true}
	if in.Price != nil {
		svc.Price = decimal.NewNullDecimal(*in.Price)
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, p domain.ServicePatch) (*domain.Service, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, domain.Invalid("name must not be empty")
	}
	if p.Price != nil && p.Price.IsNegative() {
		return nil, domain.Invalid("price must not be negative")
	}
	return s.repo.Update(ctx, id, p)
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
