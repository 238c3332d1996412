// Package app wires configuration into repositories and services. Both
// binaries build on it.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/core/cache"
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/database"
	"marketplace-api/internal/core/upload"
	"marketplace-api/internal/repo"
	"marketplace-api/internal/service"
)

type App struct {
	Cfg    *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Access *auth.JWTer
	Cache  cache.Store

	Auth     *service.AuthService
	Users    *service.UserService
	Listings *service.ListingService
	Catalog  *service.CatalogService
	Leads    *service.LeadService
	Settings *service.SettingsService

	closers []func() error
}

func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		StatementTimeoutMs: cfg.DB.StatementTimeoutMs,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
}

// New builds every service on top of db. A redis address enables the
// settings cache; without one reads go straight to the database.
func New(cfg *config.Config, l *zap.Logger, db *gorm.DB) (*App, error) {
	a := &App{Cfg: cfg, Log: l, DB: db, Cache: cache.Nop{}}

	if cfg.Redis.Addr != "" {
		rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			l.Warn("redis unavailable, settings cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rc.Close()
		} else {
			a.Cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	files, err := upload.New(cfg.Upload.Dir, cfg.Upload.PublicPrefix)
	if err != nil {
		return nil, err
	}

	a.Access = &auth.JWTer{Secret: []byte(cfg.JWT.AccessSecret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.AccessTTL()}
	refresh := &auth.JWTer{Secret: []byte(cfg.JWT.RefreshSecret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.RefreshTTL()}

	users := repo.NewUserRepo(db)
	tokens := repo.NewTokenRepo(db)
	listings := repo.NewListingRepo(db, time.Duration(cfg.DB.LockTimeoutMs)*time.Millisecond)

	a.Auth = service.NewAuthService(users, tokens, a.Access, refresh, cfg.Auth.BcryptCost, l)
	a.Users = service.NewUserService(users, tokens, l)
	a.Listings = service.NewListingService(listings, files, service.ImageLimits{
		MaxFiles: cfg.Upload.MaxFiles,
		MaxBytes: cfg.Upload.MaxFileMB << 20,
	}, l)
	a.Catalog = service.NewCatalogService(repo.NewServiceRepo(db))
	a.Leads = service.NewLeadService(repo.NewLeadRepo(db))
	a.Settings = service.NewSettingsService(repo.NewSettingsRepo(db), a.Cache, cfg.Redis.TTL(), files, cfg.Upload.LogoMaxMB<<20, l)
	return a, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.Log.Warn("close", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
