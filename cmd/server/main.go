// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stn-analytics/stn-dashboard/internal/api"
	"github.com/stn-analytics/stn-dashboard/internal/cache"
	"github.com/stn-analytics/stn-dashboard/internal/config"
	"github.com/stn-analytics/stn-dashboard/internal/mailbox"
	"github.com/stn-analytics/stn-dashboard/internal/repository/postgres"
	"github.com/stn-analytics/stn-dashboard/internal/resolve"
	"github.com/stn-analytics/stn-dashboard/internal/scheduler"
	"github.com/stn-analytics/stn-dashboard/internal/service"
	"github.com/stn-analytics/stn-dashboard/internal/storage"
	"github.com/stn-analytics/stn-dashboard/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to run migrations")
	}

	refs := postgres.NewReferenceRepository(db)
	facts := postgres.NewFactRepository(db)
	runs := postgres.NewRunRepository(db)
	reports := postgres.NewReportRepository(db)

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, running without it")
		reportCache = cache.NewNoopReportCache()
	}

	archive, err := storage.NewArchive(cfg.Archive)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("attachment archive unavailable, running without it")
		archive = storage.NewNoopArchive()
	}

	source, err := mailbox.NewSource(ctx, cfg.Mail)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to initialize mailbox source")
	}

	resolver := resolve.New(refs, cfg.Match.PlaceholderHeads)
	ingestService := service.NewIngestService(cfg.Mail, source, refs, facts, runs, resolver, archive, reportCache)
	reportService := service.NewReportService(reports, runs, reportCache)

	sched, err := scheduler.New(cfg.Schedule, ingestService)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid cron configuration")
	}
	sched.Start()
	defer sched.Stop()

	router := api.NewRouter(&api.Services{
		ReportService: reportService,
		IngestService: ingestService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Log.Info().Msg("server exiting")
}
