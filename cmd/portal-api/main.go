package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sistem-rt/portal-api/api/swagger"
	"github.com/sistem-rt/portal-api/internal/handler"
	"github.com/sistem-rt/portal-api/internal/middleware"
	"github.com/sistem-rt/portal-api/internal/models"
	"github.com/sistem-rt/portal-api/internal/pdf"
	"github.com/sistem-rt/portal-api/internal/repository"
	"github.com/sistem-rt/portal-api/internal/service"
	"github.com/sistem-rt/portal-api/pkg/cache"
	"github.com/sistem-rt/portal-api/pkg/config"
	"github.com/sistem-rt/portal-api/pkg/database"
	"github.com/sistem-rt/portal-api/pkg/jobs"
	"github.com/sistem-rt/portal-api/pkg/logger"
	corsmiddleware "github.com/sistem-rt/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sistem-rt/portal-api/pkg/middleware/requestid"
	"github.com/sistem-rt/portal-api/pkg/storage"
)

// @title Sistem RT Portal API
// @version 1.0.0
// @description Residential community administration portal
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, news cache disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}
	documents, err := storage.NewLocalStorage(cfg.Letters.DocumentDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare documents directory", "error", err)
	}
	invoices, err := storage.NewLocalStorage(cfg.Payments.InvoiceDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare invoices directory", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository(db)
	letterRepo := repository.NewLetterRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	queueCfg := jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	}

	metricsSvc := service.NewMetricsService()

	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	notificationSvc.Start(ctx, queueCfg)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	userSvc := service.NewUserService(userRepo, logr)

	signer := storage.NewSignedURLSigner(cfg.Letters.SignedURLSecret, cfg.Letters.SignedURLTTL)
	letterSvc := service.NewLetterService(
		letterRepo,
		userRepo,
		notificationSvc,
		uploads,
		documents,
		pdf.NewLetterRenderer(),
		logr,
		service.WithRenderTimeout(cfg.Letters.RenderTimeout),
		service.WithCodeRetries(cfg.Letters.CodeRetries),
		service.WithDownloadSigner(signer),
	)

	newsSvc := service.NewNewsService(newsRepo, cacheRepo, userRepo, notificationSvc, logr,
		cfg.News.CacheEnabled && redisClient != nil, cfg.News.CacheTTL)

	paymentSvc := service.NewPaymentService(paymentRepo, uploads, invoices, pdf.NewInvoiceRenderer(), notificationSvc, logr)
	paymentSvc.Start(ctx, queueCfg)
	defer paymentSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	letterHandler := handler.NewLetterHandler(letterSvc, metricsSvc, cfg.Uploads.MaxFileSizeBytes)
	newsHandler := handler.NewNewsHandler(newsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, cfg.Uploads.MaxFileSizeBytes)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/letters/download", middleware.OptionalJWT(authSvc), letterHandler.DownloadSigned)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)

		authed.POST("/letters", letterHandler.Submit)
		authed.GET("/letters", letterHandler.ListMine)
		authed.GET("/letters/:id", letterHandler.Get)
		authed.GET("/letters/:id/download", letterHandler.Download)
		authed.GET("/letters/:id/download-url", letterHandler.DownloadURL)

		authed.GET("/news", newsHandler.List)

		authed.GET("/users/:id", middleware.RBAC("SELF", string(models.RoleAdmin)), userHandler.Get)

		authed.GET("/notifications", notificationHandler.List)
		authed.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

		authed.POST("/payments", paymentHandler.Create)
		authed.GET("/payments", paymentHandler.ListMine)
		authed.GET("/payments/:id/invoice", paymentHandler.DownloadInvoice)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/letters", letterHandler.ListAll)
		admin.PATCH("/letters/:id/approve", letterHandler.Approve)
		admin.PATCH("/letters/:id/reject", letterHandler.Reject)

		admin.POST("/news", newsHandler.Create)
		admin.DELETE("/news/:id", newsHandler.Delete)

		admin.GET("/payments", paymentHandler.ListAll)

		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
