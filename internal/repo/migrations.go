package repo

import (
	"gorm.io/gorm"

	"marketplace-api/internal/core/database"
	"marketplace-api/internal/domain"
)

// Migrations returns the schema history in version order.
func Migrations() []database.Migration {
	return []database.Migration{
		{
			Version: "202501010001",
			Name:    "create_tables",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(v1Tables()...)
			},
			Down: func(tx *gorm.DB) error {
				ms := v1Tables()
				for i := len(ms) - 1; i >= 0; i-- {
					if err := tx.Migrator().DropTable(ms[i]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: "202501010002",
			Name:    "featured_index_and_settings_row",
			Up: func(tx *gorm.DB) error {
				stmts := []string{
					"CREATE INDEX idx_listings_public ON listings (is_approved, status, created_at)",
				}
				if tx.Dialector.Name() == "mysql" {
					stmts = append(stmts, "CREATE INDEX idx_listings_featured ON listings (is_featured, is_approved)")
				} else {
					stmts = append(stmts, "CREATE INDEX idx_listings_featured ON listings (id) WHERE is_featured = true AND is_approved = true AND deleted_at IS NULL")
				}
				for _, s := range stmts {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return ensureRow(tx)
			},
			Down: func(tx *gorm.DB) error {
				for _, idx := range []string{"idx_listings_featured", "idx_listings_public"} {
					if err := tx.Migrator().DropIndex(&domain.Listing{}, idx); err != nil {
						return err
					}
				}
				return tx.Delete(&domain.CompanySettings{}, "id = ?", domain.SettingsRowID).Error
			},
		},
	}
}

func NewMigrator(db *gorm.DB) *database.Migrator {
	return database.NewMigrator(db, Migrations()...)
}
