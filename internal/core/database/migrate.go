package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Migration is one versioned schema step. Versions sort lexically.
type Migration struct {
	Version string
	Name    string
	Up      func(tx *gorm.DB) error
	Down    func(tx *gorm.DB) error
}

// MigrationRecord marks a migration as applied.
type MigrationRecord struct {
	Version   string    `gorm:"primaryKey;size:32"`
	Name      string    `gorm:"size:120;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationRecord) TableName() string { return "schema_migrations" }

type MigrationStatus struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB, ms ...Migration) *Migrator {
	sorted := append([]Migration(nil), ms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Migrator{db: db, migrations: sorted}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	return m.db.WithContext(ctx).AutoMigrate(&MigrationRecord{})
}

func (m *Migrator) applied(ctx context.Context) (map[string]MigrationRecord, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var recs []MigrationRecord
	if err := m.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]MigrationRecord, len(recs))
	for _, r := range recs {
		out[r.Version] = r
	}
	return out, nil
}

// Up applies every pending migration in version order and returns the
// versions it applied. Running it again is a no-op.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	var ran []string
	for _, mg := range m.migrations {
		if _, ok := done[mg.Version]; ok {
			continue
		}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mg.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{Version: mg.Version, Name: mg.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration %s_%s: %w", mg.Version, mg.Name, err)
		}
		ran = append(ran, mg.Version)
	}
	return ran, nil
}

// Down reverts the most recently applied migration. It returns an empty
// version when nothing is applied.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return "", err
	}
	var last MigrationRecord
	res := m.db.WithContext(ctx).Order("version DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", nil
	}
	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last.Version {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("migration %s is applied but not registered", last.Version)
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if target.Down != nil {
			if err := target.Down(tx); err != nil {
				return err
			}
		}
		return tx.Delete(&MigrationRecord{}, "version = ?", last.Version).Error
	})
	if err != nil {
		return "", fmt.Errorf("revert %s_%s: %w", target.Version, target.Name, err)
	}
	return last.Version, nil
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mg := range m.migrations {
		st := MigrationStatus{Version: mg.Version, Name: mg.Name}
		if r, ok := done[mg.Version]; ok {
			at := r.AppliedAt
			st.Applied = true
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}
