package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	authhandler "github.com/jevencare/api/internal/handler/auth"
	"github.com/jevencare/api/internal/handler/health"
	"github.com/jevencare/api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

type Handlers struct {
	Auth   *authhandler.Handler
	Health *health.Handler
	// Domain handlers mounted under /api with the shared auth middleware.
	Domain []Handler
}

type Config struct {
	Production       bool
	ClientURL        string
	RateLimit        rate.Limit
	RateBurst        int
	OTPRateLimit     rate.Limit
	OTPRateBurst     int
	MetricsNamespace string
	// Registry receives the HTTP collectors and backs /api/metrics.
	Registry *prometheus.Registry
	// FilesDir is served under /files when set.
	FilesDir string
}

// New builds the gin engine with the middleware chain and every route.
func New(cfg Config, authMw *middleware.AuthMiddleware, h Handlers) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	httpMetrics := middleware.NewHTTPMetrics(cfg.MetricsNamespace, cfg.Registry)

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		httpMetrics.Middleware(),
		corsMiddleware(cfg.ClientURL),
		middleware.SecurityHeaders(cfg.Production),
		gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths([]string{"/api/metrics"})),
	)
	if cfg.RateLimit > 0 {
		engine.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		}).RateLimit())
	}

	otpLimit := func(c *gin.Context) { c.Next() }
	if cfg.OTPRateLimit > 0 {
		otpLimit = middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
			Rate:  cfg.OTPRateLimit,
			Burst: cfg.OTPRateBurst,
		}, 10*time.Minute).RateLimit()
	}

	api := engine.Group("/api")
	api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	if h.Health != nil {
		h.Health.RegisterRoutes(api)
	}
	if h.Auth != nil {
		h.Auth.RegisterRoutes(api, authMw, otpLimit)
	}
	for _, d := range h.Domain {
		d.RegisterRoutes(api, authMw)
	}

	if cfg.FilesDir != "" {
		engine.Static("/files", cfg.FilesDir)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "Method not allowed"})
	})

	return engine, nil
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	origins := []string{"*"}
	if clientURL != "" {
		origins = strings.Split(clientURL, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", middleware.HeaderXRequestID},
		ExposedHeaders:   []string{middleware.HeaderXRequestID},
		AllowCredentials: clientURL != "",
		MaxAge:           86400,
	})

	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			// preflight already answered by cors
			ctx.Writer.WriteHeaderNow()
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
