package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staffattendance/internal/auth"
	"staffattendance/internal/httpmiddleware"
)

// RouterOptions tune the outer middleware.
type RouterOptions struct {
	CORSOrigins     []string
	RateLimitPerMin int
	// MetricsHandler serves /metrics; nil uses the default registry.
	MetricsHandler http.Handler
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders: []string{httpmiddleware.RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Router wires every route onto a fresh gin engine.
func (h *Handler) Router(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.RequestID())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	if h.Metrics != nil {
		r.Use(h.Metrics.GinMiddleware())
	}
	r.Use(httpmiddleware.NewSimpleTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).GinMiddleware())

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/refresh", h.Refresh)
	v1.GET("/live", auth.Required(h.Signer, true), h.Live)

	authed := v1.Group("", auth.Required(h.Signer, false))
	authed.GET("/me", h.Me)
	authed.POST("/upload", h.Upload)
	authed.POST("/checkins", h.CheckIn)
	authed.GET("/attendance/today", h.ListToday)
	authed.GET("/attendance/recent", h.ListRecent)

	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/attendance", h.ListAttendance)
	admin.GET("/attendance/export", h.Export)
	admin.GET("/analytics", h.Analytics)
	admin.GET("/staff", h.ListStaff)
	admin.POST("/staff", h.AddStaff)
	admin.DELETE("/staff/:id", h.RemoveStaff)

	return r
}
