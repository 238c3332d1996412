package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketplace-api/internal/domain"
)

func newMockPG(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

var listingCols = []string{"id", "user_id", "title", "price", "status", "is_approved", "is_featured"}

const (
	lockCandidate = `SELECT \* FROM "listings" WHERE id = .* FOR UPDATE`
	lockFeatured  = `SELECT "id" FROM "listings" WHERE .*is_featured.* FOR UPDATE`
)

// The featured toggle must bound lock waits, lock the candidate row and
// then read the featured set twice under lock before writing.
func TestSetFeatured_PostgresLockSequence(t *testing.T) {
	db, mock := newMockPG(t)
	r := NewListingRepo(db, 3*time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '3000ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(lockCandidate).
		WillReturnRows(sqlmock.NewRows(listingCols).AddRow("l4", "u1", "Car", "100", "active", true, false))
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(lockFeatured).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("l1").AddRow("l2"))
	}
	mock.ExpectExec(`UPDATE "listings" SET "is_featured"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = `).
		WillReturnRows(sqlmock.NewRows(listingCols).AddRow("l4", "u1", "Car", "100", "active", true, true))
	mock.ExpectCommit()

	got, err := r.SetFeatured(context.Background(), "l4", true, domain.MaxFeatured)
	require.NoError(t, err)
	assert.True(t, got.IsFeatured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetFeatured_PostgresFullSetRollsBack(t *testing.T) {
	db, mock := newMockPG(t)
	r := NewListingRepo(db, 3*time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(lockCandidate).
		WillReturnRows(sqlmock.NewRows(listingCols).AddRow("l4", "u1", "Car", "100", "active", true, false))
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(lockFeatured).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("l1").AddRow("l2").AddRow("l3"))
	}
	mock.ExpectRollback()

	_, err := r.SetFeatured(context.Background(), "l4", true, domain.MaxFeatured)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetFeatured_UnfeatureSkipsSetLock(t *testing.T) {
	db, mock := newMockPG(t)
	r := NewListingRepo(db, 0)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCandidate).
		WillReturnRows(sqlmock.NewRows(listingCols).AddRow("l1", "u1", "Car", "100", "active", true, true))
	mock.ExpectExec(`UPDATE "listings" SET "is_featured"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "listings" WHERE id = `).
		WillReturnRows(sqlmock.NewRows(listingCols).AddRow("l1", "u1", "Car", "100", "active", true, false))
	mock.ExpectCommit()

	got, err := r.SetFeatured(context.Background(), "l1", false, domain.MaxFeatured)
	require.NoError(t, err)
	assert.False(t, got.IsFeatured)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, IsDuplicate(nil))
	assert.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	assert.False(t, IsDuplicate(gorm.ErrRecordNotFound))
}
