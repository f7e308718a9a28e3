package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/adpulse/reports-api/internal/handler"
	"github.com/adpulse/reports-api/internal/middleware"
	"github.com/adpulse/reports-api/internal/repository"
	"github.com/adpulse/reports-api/internal/service"
	"github.com/adpulse/reports-api/pkg/cache"
	"github.com/adpulse/reports-api/pkg/config"
	"github.com/adpulse/reports-api/pkg/database"
	"github.com/adpulse/reports-api/pkg/logger"
	"github.com/adpulse/reports-api/pkg/mailer"
	corsmiddleware "github.com/adpulse/reports-api/pkg/middleware/cors"
	reqidmiddleware "github.com/adpulse/reports-api/pkg/middleware/requestid"
	"github.com/adpulse/reports-api/pkg/signing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	configRepo := repository.NewReportConfigRepository(db)
	reportRepo := repository.NewGeneratedReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)
	signer := signing.NewReportLinkSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)
	renderer := service.NewEmailRenderer(cfg.BaseURL)
	fetcher := service.NewAnalyticsClient(cfg.Analytics)
	summarizer := service.NewOpenAISummarizer(cfg.Summarizer)

	pipeline := service.NewPipelineService(configRepo, reportRepo, fetcher, summarizer, smtpMailer, renderer, metrics, logr)
	registry := service.NewJobRegistry(logr)
	scheduler := service.NewSchedulerService(configRepo, pipeline, registry, metrics, logr)
	reportSvc := service.NewGeneratedReportService(reportRepo, cacheSvc, signer, cfg.BaseURL, logr)
	configSvc := service.NewReportConfigService(configRepo, scheduler, reportSvc, validate, logr)

	if cfg.Scheduler.Enabled && cfg.Scheduler.InitOnBoot {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := scheduler.InitializeOnBoot(ctx); err != nil {
			logr.Sugar().Errorw("failed to arm scheduled jobs on boot", "error", err)
		}
		cancel()
	}

	configHandler := handler.NewReportConfigHandler(configSvc, scheduler)
	reportHandler := handler.NewReportHandler(reportSvc)
	schedulerHandler := handler.NewSchedulerHandler(scheduler)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/report-configs", configHandler.Create)
		api.GET("/report-configs", configHandler.List)
		api.GET("/report-configs/:id", configHandler.Get)
		api.PUT("/report-configs/:id", configHandler.Update)
		api.DELETE("/report-configs/:id", configHandler.Delete)
		api.POST("/report-configs/:id/run", configHandler.RunNow)
		api.GET("/report-configs/:id/reports", reportHandler.ListByConfig)

		api.GET("/jobs/status", schedulerHandler.Status)

		api.GET("/reports/:id", reportHandler.Get)
		api.GET("/reports/:id/signed-link", reportHandler.SignedLink)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	scheduler.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
