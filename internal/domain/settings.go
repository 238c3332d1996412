package domain

import (
	"context"
	"time"
)

// SettingsRowID is the id of the only company settings row.
const SettingsRowID = 1

type CompanySettings struct {
	ID          int       `gorm:"primaryKey;autoIncrement:false" json:"-"`
	CompanyName *string   `gorm:"type:text" json:"company_name"`
	NIF         *string   `gorm:"column:nif;type:text" json:"nif"`
	Address     *string   `gorm:"type:text" json:"address"`
	SocialArea  *string   `gorm:"type:text" json:"social_area"`
	Phone       *string   `gorm:"type:text" json:"phone"`
	Email       *string   `gorm:"type:text" json:"email"`
	LogoURL     *string   `gorm:"type:text" json:"logo_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (CompanySettings) TableName() string { return "app_company_settings" }

// PublicCompany is the subset exposed without authentication.
type PublicCompany struct {
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (s *CompanySettings) Public() PublicCompany {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return PublicCompany{
		CompanyName: deref(s.CompanyName),
		Email:       deref(s.Email),
		Phone:       deref(s.Phone),
		Address:     deref(s.Address),
	}
}

type SettingsPatch struct {
	CompanyName *string
	NIF         *string
	Address     *string
	SocialArea  *string
	Phone       *string
	Email       *string
}

type SettingsRepository interface {
	Get(ctx context.Context) (*CompanySettings, error)
	Update(ctx context.Context, p SettingsPatch) (*CompanySettings, error)
	SetLogo(ctx context.Context, url *string) (*CompanySettings, error)
}
