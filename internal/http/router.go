package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plate-registry/internal/config"
	"plate-registry/internal/metrics"
	"plate-registry/internal/service"
)

const localFrontend = "http://localhost:3000"

type RouterDeps struct {
	Config       *config.Config
	Registration *service.RegistrationService
	Lookup       *service.LookupService
	Auth         *service.AuthService
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(deps.Log, deps.Metrics))
	r.Use(cors.New(corsConfig(cfg.Server.FrontendURL)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	NewAuthHandler(deps.Auth, deps.Log).Register(r)
	NewHandler(deps.Registration, deps.Lookup, cfg, deps.Log).Register(r, AuthMiddleware(deps.Auth))

	if info, err := os.Stat(cfg.Server.StaticDir); err == nil && info.IsDir() {
		files := http.FileServer(http.Dir(cfg.Server.StaticDir))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
				c.JSON(http.StatusNotFound, errorResponse("route not found"))
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	} else {
		r.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, errorResponse("route not found"))
		})
	}

	return r
}

func corsConfig(frontendURL string) cors.Config {
	origins := []string{localFrontend}
	if frontendURL != "" && frontendURL != localFrontend {
		origins = append(origins, frontendURL)
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
