package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/cache"
	"marketplace-api/internal/core/upload"
	"marketplace-api/internal/domain"
)

const settingsCacheKey = "settings:company"

type SettingsService struct {
	repo    domain.SettingsRepository
	cache   cache.Store
	ttl     time.Duration
	files   FileStore
	logoMax int64
	log     *zap.Logger
}

func NewSettingsService(repo domain.SettingsRepository, c cache.Store, ttl time.Duration, files FileStore, logoMax int64, l *zap.Logger) *SettingsService {
	if c == nil {
		c = cache.Nop{}
	}
	return &SettingsService{repo: repo, cache: c, ttl: ttl, files: files, logoMax: logoMax, log: l}
}

func (s *SettingsService) Get(ctx context.Context) (*domain.CompanySettings, error) {
	return cache.LoadJSON(ctx, s.cache, settingsCacheKey, s.ttl, s.repo.Get)
}

func (s *SettingsService) GetPublic(ctx context.Context) (*domain.PublicCompany, error) {
	cs, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	p := cs.Public()
	return &p, nil
}

func (s *SettingsService) Update(ctx context.Context, p domain.SettingsPatch) (*domain.CompanySettings, error) {
	cs, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, cs)
	return cs, nil
}

// SetLogo stores a new logo and removes the previous file.
func (s *SettingsService) SetLogo(ctx context.Context, f FileInput) (*domain.CompanySettings, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	url, err := saveFile(s.files, f, upload.SaveOpts{Dir: "branding", MaxBytes: s.logoMax, Allowed: upload.LogoTypes})
	if err != nil {
		return nil, err
	}
	cs, err := s.repo.SetLogo(ctx, &url)
	if err != nil {
		s.removeFile(url)
		return nil, err
	}
	if current.LogoURL != nil {
		s.removeFile(*current.LogoURL)
	}
	s.refresh(ctx, cs)
	return cs, nil
}

func (s *SettingsService) RemoveLogo(ctx context.Context) (*domain.CompanySettings, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := s.repo.SetLogo(ctx, nil)
	if err != nil {
		return nil, err
	}
	if current.LogoURL != nil {
		s.removeFile(*current.LogoURL)
	}
	s.refresh(ctx, cs)
	return cs, nil
}

func (s *SettingsService) removeFile(url string) {
	if err := s.files.Remove(url); err != nil {
		s.log.Warn("remove logo file", zap.String("url", url), zap.Error(err))
	}
}

// refresh writes the saved row through to the cache. A reader that loaded
// the previous row cannot replace it afterwards.
func (s *SettingsService) refresh(ctx context.Context, cs *domain.CompanySettings) {
	err := cache.StoreJSON(ctx, s.cache, settingsCacheKey, s.ttl, cs)
	if err == nil {
		return
	}
	s.log.Warn("settings cache write", zap.Error(err))
	if err := s.cache.Invalidate(ctx, settingsCacheKey); err != nil {
		s.log.Warn("settings cache invalidate", zap.Error(err))
	}
}
