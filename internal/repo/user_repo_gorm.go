package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"marketplace-api/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicate(err) {
			return domain.Conflict("email already registered")
		}
		return err
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if isNotFound(err) {
		return nil, domain.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if isNotFound(err) {
		return nil, domain.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&users).Error
	return users, err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfilePatch) (*domain.User, error) {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Phone != nil {
		fields["phone"] = nullIfBlank(*p.Phone)
	}
	if p.Location != nil {
		fields["location"] = nullIfBlank(*p.Location)
	}
	return r.update(ctx, id, fields)
}

func (r *UserRepo) SetBlocked(ctx context.Context, id string, blocked bool) (*domain.User, error) {
	return r.update(ctx, id, map[string]any{"is_blocked": blocked})
}

func (r *UserRepo) update(ctx context.Context, id string, fields map[string]any) (*domain.User, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.FindByID(ctx, id)
}

// nullIfBlank stores empty optional text as NULL.
func nullIfBlank(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
