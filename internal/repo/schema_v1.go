package repo

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tables as created by migration 202501010001. These types are frozen:
// schema changes go into a new migration, never into these structs.

type v1User struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Name         string  `gorm:"size:120;not null"`
	Email        string  `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string  `gorm:"size:100;not null"`
	Phone        *string `gorm:"size:32"`
	Location     *string `gorm:"size:120"`
	Role         string  `gorm:"size:16;not null;default:user"`
	IsBlocked    bool    `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (v1User) TableName() string { return "users" }

type v1RefreshToken struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:36;not null;index"`
	TokenHash string     `gorm:"size:100;not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	RevokedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (v1RefreshToken) TableName() string { return "refresh_tokens" }

type v1Listing struct {
	ID          string          `gorm:"primaryKey;size:36"`
	UserID      string          `gorm:"size:36;not null;index"`
	Title       string          `gorm:"size:160;not null"`
	Category    string          `gorm:"size:80;not null;index"`
	Condition   string          `gorm:"size:80;not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Location    string          `gorm:"size:120;not null"`
	Description string          `gorm:"type:text;not null"`
	Status      string          `gorm:"size:16;not null;default:active;index"`
	SourceType  string          `gorm:"size:16;not null;default:internal"`
	SourceName  *string         `gorm:"size:80"`
	ExternalURL *string         `gorm:"size:500"`
	ExternalRef *string         `gorm:"size:120"`
	IsApproved  bool            `gorm:"not null;default:false;index"`
	IsFeatured  bool            `gorm:"not null;default:false"`
	RejectedAt  *time.Time
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (v1Listing) TableName() string { return "listings" }

type v1ListingImage struct {
	ID        string     `gorm:"primaryKey;size:36"`
	ListingID string     `gorm:"size:36;not null;index"`
	Listing   *v1Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	URL       string     `gorm:"size:500;not null"`
	SortOrder int        `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (v1ListingImage) TableName() string { return "listing_images" }

type v1Service struct {
	ID          string              `gorm:"primaryKey;size:36"`
	Name        string              `gorm:"size:120;not null"`
	Description string              `gorm:"type:text;not null"`
	Price       decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	IsActive    bool                `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (v1Service) TableName() string { return "services" }

type v1Lead struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    *string   `gorm:"size:36"`
	ListingID *string   `gorm:"size:36;index"`
	ServiceID *string   `gorm:"size:36;index"`
	Name      string    `gorm:"size:120;not null"`
	Email     string    `gorm:"size:191;not null"`
	Phone     *string   `gorm:"size:32"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (v1Lead) TableName() string { return "leads_contacts" }

type v1Contacto struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:120;not null"`
	Email     string `gorm:"size:191;not null"`
	Contact   string `gorm:"size:64;not null"`
	Message   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (v1Contacto) TableName() string { return "contactos" }

type v1CompanySettings struct {
	ID          int     `gorm:"primaryKey;autoIncrement:false"`
	CompanyName *string `gorm:"type:text"`
	NIF         *string `gorm:"column:nif;type:text"`
	Address     *string `gorm:"type:text"`
	SocialArea  *string `gorm:"type:text"`
	Phone       *string `gorm:"type:text"`
	Email       *string `gorm:"type:text"`
	LogoURL     *string `gorm:"type:text"`
	UpdatedAt   time.Time
}

func (v1CompanySettings) TableName() string { return "app_company_settings" }

// v1Tables lists parents before children.
func v1Tables() []any {
	return []any{
		&v1User{},
		&v1RefreshToken{},
		&v1Listing{},
		&v1ListingImage{},
		&v1Service{},
		&v1Lead{},
		&v1Contacto{},
		&v1CompanySettings{},
	}
}
