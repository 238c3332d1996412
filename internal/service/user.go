package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/domain"
)

type UserService struct {
	users  domain.UserRepository
	tokens domain.RefreshTokenRepository
	log    *zap.Logger
}

func NewUserService(users domain.UserRepository, tokens domain.RefreshTokenRepository, l *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: l}
}

func (s *UserService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.users.FindByID(ctx, actor.UserID)
}

func (s *UserService) UpdateMe(ctx context.Context, actor domain.Actor, p domain.ProfilePatch) (*domain.User, error) {
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		if len(n) < 2 {
			return nil, domain.Invalid("name is too short")
		}
		p.Name = &n
	}
	return s.users.UpdateProfile(ctx, actor.UserID, p)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// SetBlocked blocks or unblocks an account. Blocking also revokes the
// user's refresh tokens so existing sessions cannot be renewed.
func (s *UserService) SetBlocked(ctx context.Context, actor domain.Actor, id string, blocked bool) (*domain.User, error) {
	if blocked && id == actor.UserID {
		return nil, domain.Invalid("admins cannot block themselves")
	}
	u, err := s.users.SetBlocked(ctx, id, blocked)
	if err != nil {
		return nil, err
	}
	if blocked {
		if _, err := s.tokens.RevokeAll(ctx, id, time.Now().UTC()); err != nil {
			s.log.Warn("block: revoke tokens", zap.String("user_id", id), zap.Error(err))
		}
	}
	return u, nil
}
