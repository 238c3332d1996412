package repo

import (
	"context"

	"gorm.io/gorm"

	"marketplace-api/internal/domain"
)

type ServiceRepo struct{ db *gorm.DB }

func NewServiceRepo(db *gorm.DB) *ServiceRepo { return &ServiceRepo{db: db} }

func (r *ServiceRepo) Create(ctx context.Context, s *domain.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ServiceRepo) ListActive(ctx context.Context) ([]domain.Service, error) {
	out := []domain.Service{}
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *ServiceRepo) ListAll(ctx context.Context) ([]domain.Service, error) {
	out := []domain.Service{}
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *ServiceRepo) Update(ctx context.Context, id string, p domain.ServicePatch) (*domain.Service, error) {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Price != nil {
		fields["price"] = *p.Price
	}
	if p.IsActive != nil {
		fields["is_active"] = *p.IsActive
	}
	db := r.db.WithContext(ctx)
	if len(fields) > 0 {
		if err := db.Model(&domain.Service{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	var s domain.Service
	err := db.Take(&s, "id = ?", id).Error
	if isNotFound(err) {
		return nil, domain.NotFound("service not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Service{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("service not found")
	}
	return nil
}
