package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/biblioteca-api/api/swagger"
	"github.com/noah-isme/biblioteca-api/internal/handler"
	"github.com/noah-isme/biblioteca-api/internal/middleware"
	"github.com/noah-isme/biblioteca-api/internal/repository"
	"github.com/noah-isme/biblioteca-api/internal/service"
	"github.com/noah-isme/biblioteca-api/pkg/config"
	"github.com/noah-isme/biblioteca-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/biblioteca-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/biblioteca-api/pkg/middleware/requestid"
)

// @title Biblioteca Catalog API
// @version 1.0.0
// @description Searchable book catalog backed by a Google Spreadsheet
// @BasePath /
// @schemes http

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

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := repository.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, falling back to in-process cache", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	sheetsRepo, err := repository.NewSheetsRepository(context.Background(), cfg.Google, cfg.Upstream.Timeout, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to build sheets client", "error", err)
	}

	catalogSvc := service.NewCatalogService(sheetsRepo, cacheSvc, metricsSvc, cfg.Cache.TTL, logr)
	sanitizerSvc := service.NewSanitizerService()
	captchaSvc := service.NewCaptchaService(cfg.Captcha, metricsSvc, logr)
	limiterSvc := service.NewRateLimitService(cfg.RateLimit, metricsSvc, logr)

	sessionSvc, err := service.NewSessionService(cfg.Session, cfg.Env, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init sessions", "error", err)
	}

	searchHandler := handler.NewSearchHandler(catalogSvc, sanitizerSvc, captchaSvc, logr)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	captchaHandler := handler.NewCaptchaHandler(captchaSvc, logr)
	debugHandler := handler.NewDebugHandler(cfg, sheetsRepo)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.SecurityHeaders(cfg.Session.SecureCookie))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Session(sessionSvc))

	r.LoadHTMLGlob("web/templates/*.html")

	r.GET("/", catalogHandler.Index)
	r.GET("/search",
		middleware.RateLimit(limiterSvc, service.EndpointSearch),
		searchHandler.Search)
	r.GET("/api/books",
		middleware.RateLimit(limiterSvc, service.EndpointBooks),
		catalogHandler.Books)
	r.GET("/api/categories", catalogHandler.Categories)
	r.GET("/api/captcha/generate",
		middleware.RateLimit(limiterSvc, service.EndpointCaptchaGenerate),
		captchaHandler.Generate)
	r.GET("/api/captcha/verify",
		middleware.RateLimit(limiterSvc, service.EndpointCaptchaVerify),
		captchaHandler.Verify)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/debug/config", debugHandler.Config)
		r.GET("/debug/test-connection", debugHandler.TestConnection)
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Passive expiry already happens on access; the sweep bounds
	// memory for sessions that never come back.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				captchaSvc.Cleanup()
				limiterSvc.Cleanup()
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
