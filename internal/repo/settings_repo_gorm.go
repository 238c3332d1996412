package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace-api/internal/domain"
)

type SettingsRepo struct{ db *gorm.DB }

func NewSettingsRepo(db *gorm.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// ensureRow creates the settings row when a fresh schema lacks it.
func ensureRow(tx *gorm.DB) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.CompanySettings{ID: domain.SettingsRowID}).Error
}

func (r *SettingsRepo) Get(ctx context.Context) (*domain.CompanySettings, error) {
	var s domain.CompanySettings
	db := r.db.WithContext(ctx)
	res := db.Limit(1).Find(&s, "id = ?", domain.SettingsRowID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := ensureRow(db); err != nil {
			return nil, err
		}
		if err := db.Take(&s, "id = ?", domain.SettingsRowID).Error; err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (r *SettingsRepo) Update(ctx context.Context, p domain.SettingsPatch) (*domain.CompanySettings, error) {
	fields := map[string]any{}
	put := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	put("company_name", p.CompanyName)
	put("nif", p.NIF)
	put("address", p.Address)
	put("social_area", p.SocialArea)
	put("phone", p.Phone)
	put("email", p.Email)
	return r.write(ctx, fields)
}

func (r *SettingsRepo) SetLogo(ctx context.Context, url *string) (*domain.CompanySettings, error) {
	return r.write(ctx, map[string]any{"logo_url": url})
}

func (r *SettingsRepo) write(ctx context.Context, fields map[string]any) (*domain.CompanySettings, error) {
	var out domain.CompanySettings
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRow(tx); err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&domain.CompanySettings{}).
				Where("id = ?", domain.SettingsRowID).
				Updates(fields).Error; err != nil {
				return err
			}
		}
		return tx.Take(&out, "id = ?", domain.SettingsRowID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
