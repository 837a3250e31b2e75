package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plate-registry/internal/config"
	"plate-registry/internal/db"
	httphandler "plate-registry/internal/http"
	"plate-registry/internal/logger"
	"plate-registry/internal/metrics"
	"plate-registry/internal/ocr"
	"plate-registry/internal/report"
	"plate-registry/internal/repository"
	"plate-registry/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Log)
	gin.SetMode(cfg.Server.Mode)

	database, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := database.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database handle")
	}
	defer sqlDB.Close()

	recognizer, err := ocr.New(cfg.OCR, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create OCR provider")
	}

	m := metrics.New()
	plates := repository.NewPlateRepository(database)
	users := repository.NewUserRepository(database)

	router := httphandler.NewRouter(httphandler.RouterDeps{
		Config:       cfg,
		Registration: service.NewRegistrationService(recognizer, plates, m, log),
		Lookup:       service.NewLookupService(plates, report.NewPDFExporter(), m, log),
		Auth:         service.NewAuthService(users, cfg.Auth, log),
		Metrics:      m,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("ocr_provider", cfg.OCR.Provider).
			Msg("plate registry listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
