package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/pkg/utils"
)

type AuthService struct {
	users   domain.UserRepository
	tokens  domain.RefreshTokenRepository
	access  *auth.JWTer
	refresh *auth.JWTer
	cost    int
	log     *zap.Logger
	now     func() time.Time
	check   func(pw, hash string) bool
	dummy   string // compared against on unknown emails
}

func NewAuthService(users domain.UserRepository, tokens domain.RefreshTokenRepository, access, refresh *auth.JWTer, bcryptCost int, l *zap.Logger) *AuthService {
	dummy, err := utils.HashPassword(uuid.NewString(), bcryptCost)
	if err != nil {
		l.Warn("dummy password hash", zap.Error(err))
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		access:  access,
		refresh: refresh,
		cost:    bcryptCost,
		log:     l,
		now:     func() time.Time { return time.Now().UTC() },
		check:   utils.CheckPassword,
		dummy:   dummy,
	}
}

type AuthResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
	Location *string
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func errInvalidRefresh() error { return domain.Unauthorized("invalid refresh token") }

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if len(in.Password) < 6 {
		return nil, domain.Invalid("password must have at least 6 characters")
	}
	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Phone:        in.Phone,
		Location:     in.Location,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		s.check(password, s.dummy)
		return nil, domain.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !s.check(password, u.PasswordHash) {
		return nil, domain.Unauthorized("invalid credentials")
	}
	if u.IsBlocked {
		return nil, domain.Forbidden("account blocked")
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token. Every failure reason yields the same
// error so callers cannot probe which tokens exist.
func (s *AuthService) Refresh(ctx context.Context, token string) (*AuthResult, error) {
	claims, err := s.refresh.Parse(token)
	if err != nil {
		return nil, errInvalidRefresh()
	}
	now := s.now()
	active, err := s.tokens.ListActive(ctx, claims.UID, now)
	if err != nil {
		return nil, err
	}
	var match *domain.RefreshToken
	for i := range active {
		if utils.CheckToken(token, active[i].TokenHash) {
			match = &active[i]
			break
		}
	}
	if match == nil {
		return nil, errInvalidRefresh()
	}
	ok, err := s.tokens.Revoke(ctx, match.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost a race with another refresh of the same token
		return nil, errInvalidRefresh()
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidRefresh()
	}
	if err != nil {
		return nil, err
	}
	if u.IsBlocked {
		return nil, errInvalidRefresh()
	}
	return s.issue(ctx, u)
}

// Logout revokes every refresh token of the token's owner. Invalid tokens
// are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) {
	claims, err := s.refresh.Parse(token)
	if err != nil {
		return
	}
	n, err := s.tokens.RevokeAll(ctx, claims.UID, s.now())
	if err != nil {
		s.log.Warn("logout: revoke tokens", zap.String("user_id", claims.UID), zap.Error(err))
		return
	}
	s.log.Debug("logout", zap.String("user_id", claims.UID), zap.Int64("revoked", n))
}

// PurgeTokens deletes refresh tokens that expired or were revoked more than
// retention ago.
func (s *AuthService) PurgeTokens(ctx context.Context, retention time.Duration) (int64, error) {
	return s.tokens.Purge(ctx, s.now().Add(-retention))
}

// CreateAdmin creates an admin account. A taken email is a conflict.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	if len(password) < 6 {
		return nil, domain.Invalid("password must have at least 6 characters")
	}
	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Name: strings.TrimSpace(name), Email: normalizeEmail(email), PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issue(ctx context.Context, u *domain.User) (*AuthResult, error) {
	at, _, err := s.access.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	rt, exp, err := s.refresh.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashToken(rt, s.cost)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, &domain.RefreshToken{UserID: u.ID, TokenHash: hash, ExpiresAt: exp.UTC()}); err != nil {
		return nil, err
	}
	return &AuthResult{User: u, AccessToken: at, RefreshToken: rt}, nil
}
