package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/database"
	"marketplace-api/internal/core/server"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/transport/http/ez"
	"marketplace-api/internal/transport/http/handler"
	mdw "marketplace-api/internal/transport/http/middleware"
	resp "marketplace-api/internal/transport/http/response"
)

type Deps struct {
	Log     *zap.Logger
	DB      *gorm.DB
	Access  *auth.JWTer
	App     config.App
	Upload  config.Upload
	Modules []Module
}

func NewAPIEngine(d Deps) *gin.Engine {
	ez.RegisterValidators()

	r := server.NewRouter(server.Options{Env: d.App.Env, CORSOrigins: d.App.CORSOrigins})

	// multipart uploads may carry every allowed image at full size
	bodyLimit := max(d.App.MaxBodyMB<<20, int64(d.Upload.MaxFiles)*d.Upload.MaxFileMB<<20+1<<20)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(d.App.RateLimit.RPS), d.App.RateLimit.Burst),
		mdw.ConcurrencyLimit(d.App.MaxConcurrent),
		mdw.MaxBodyBytes(bodyLimit),
		mdw.Timeout(d.App.RequestTimeout()),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	started := time.Now()
	r.GET("/health", health(d, started))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	uploads := r.Group(d.Upload.PublicPrefix, func(c *gin.Context) {
		c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		c.Next()
	})
	uploads.Static("/", d.Upload.Dir)

	api := r.Group("/api")
	routes := handler.Routes{
		API:       ez.New(api, d.Log),
		Auth:      mdw.AuthJWT(d.Access, ""),
		Optional:  mdw.OptionalAuth(d.Access),
		Admin:     mdw.RequireRole(domain.RoleAdmin),
		AuthLimit: mdw.RateLimitPerIP(rate.Limit(d.App.AuthRateLimit.RPS), d.App.AuthRateLimit.Burst),
	}
	reg := &Registry{}
	reg.Register(d.Modules...)
	reg.MountAll(routes)

	r.NoRoute(func(c *gin.Context) { resp.Abort(c, resp.CodeNotFound, "route not found") })
	return r
}

func health(d Deps, started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      time.Since(started).Seconds(),
			"environment": d.App.Env,
			"database":    "connected",
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, d.DB); err != nil {
			d.Log.Warn("health: database ping failed", zap.Error(err))
			body["status"] = "degraded"
			body["database"] = "disconnected"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}
