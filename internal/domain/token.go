package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken stores only a hash of the issued token.
type RefreshToken struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:36;not null;index"`
	TokenHash string     `gorm:"size:100;not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	RevokedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type RefreshTokenRepository interface {
	Save(ctx context.Context, t *RefreshToken) error
	// ListActive returns non-revoked, non-expired tokens of a user, newest first.
	ListActive(ctx context.Context, userID string, now time.Time) ([]RefreshToken, error)
	// Revoke marks one token revoked. It reports false when the token was
	// already revoked by someone else.
	Revoke(ctx context.Context, id string, now time.Time) (bool, error)
	RevokeAll(ctx context.Context, userID string, now time.Time) (int64, error)
	// Purge deletes tokens that expired or were revoked before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}
