package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"marketplace-api/internal/app"
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/logger"
	"marketplace-api/internal/core/server"
	"marketplace-api/internal/jobs"
	"marketplace-api/internal/repo"
	"marketplace-api/internal/transport/http/handler"
	"marketplace-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.FromConfig(cfg.Log))
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	db, err := app.OpenDB(cfg, log)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		applied, err := repo.NewMigrator(db).Up(ctx)
		cancel()
		if err != nil {
			log.Fatal("migrate failed", zap.Error(err))
		}
		log.Info("migrations applied", zap.Strings("versions", applied))
	}

	a, err := app.New(cfg, log, db)
	if err != nil {
		log.Fatal("bootstrap", zap.Error(err))
	}
	defer a.Close()

	janitor, err := jobs.NewJanitor(cfg.Jobs.TokenPurgeSpec, cfg.Jobs.TokenRetention(), a.Auth, log)
	if err != nil {
		log.Fatal("janitor schedule", zap.Error(err))
	}
	janitor.Start()

	r := router.NewAPIEngine(router.Deps{
		Log:    log,
		DB:     db,
		Access: a.Access,
		App:    cfg.App,
		Upload: cfg.Upload,
		Modules: []router.Module{
			handler.NewAuthHandler(a.Auth),
			handler.NewUserHandler(a.Users),
			handler.NewListingHandler(a.Listings),
			handler.NewCatalogHandler(a.Catalog),
			handler.NewLeadHandler(a.Leads),
			handler.NewSettingsHandler(a.Settings),
		},
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("marketplace api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("marketplace api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	janitor.Stop(ctx)
	log.Info("marketplace api stopped gracefully")
}
