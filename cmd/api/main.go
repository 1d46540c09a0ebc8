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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Oludefiyinfoluwa06/smarti-website/api/swagger"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/gateway"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/handler"
	internalmiddleware "github.com/Oludefiyinfoluwa06/smarti-website/internal/middleware"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/repository"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/service"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/cache"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/config"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/database"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/export"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/jobs"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/logger"
	corsmiddleware "github.com/Oludefiyinfoluwa06/smarti-website/pkg/middleware/cors"
	reqidmiddleware "github.com/Oludefiyinfoluwa06/smarti-website/pkg/middleware/requestid"
	"github.com/Oludefiyinfoluwa06/smarti-website/pkg/storage"
)

// @title Smarti Storefront API
// @version 1.0.0
// @description Enrollment checkout, course catalog and box orders for the Smarti website
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs caches and remembered profiles; the storefront
		// still works without it.
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	coreAPI := gateway.NewClient(cfg.Upstream, logr)

	attemptRepo := repository.NewAttemptRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	profileRepo := repository.NewProfileRepository(redisClient)

	store, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare receipt storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)
	pdfExporter := export.NewPDFExporter()
	csvExporter := export.NewCSVExporter()

	metricsService := service.NewMetricsService()
	receiptService := service.NewReceiptService(store, pdfExporter, signer, cfg.Receipts, logr)

	receiptQueue := jobs.NewQueue("receipts", receiptService.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	receiptQueue.Start(ctx)
	defer receiptQueue.Stop()
	receiptService.StartCleanup(ctx)

	courseService := service.NewCourseService(coreAPI, cacheRepo, cfg.Catalog, logr)
	enrollmentService := service.NewEnrollmentService(courseService, profileRepo, coreAPI, receiptQueue, logr)
	paymentService := service.NewPaymentService(coreAPI, enrollmentService, attemptRepo, metricsService, cfg.Checkout, logr)
	defer paymentService.Stop()
	orderService := service.NewOrderService(orderRepo, nil, logr)
	newsletterService := service.NewNewsletterService(coreAPI, cfg.Newsletter.Enabled, nil, logr)
	authService := service.NewAuthService(cfg.Admin, cfg.JWT, nil, logr)
	exportService := service.NewExportService(attemptRepo, csvExporter, pdfExporter, logr)

	checkoutHandler := handler.NewCheckoutHandler(paymentService)
	courseHandler := handler.NewCourseHandler(courseService)
	profileHandler := handler.NewProfileHandler(enrollmentService)
	orderHandler := handler.NewOrderHandler(orderService)
	newsletterHandler := handler.NewNewsletterHandler(newsletterService)
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(attemptRepo, orderService, exportService, receiptService)
	downloadHandler := handler.NewDownloadHandler(receiptService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id", courseHandler.Get)
		api.GET("/enrollments/counts", courseHandler.Counts)
		api.GET("/enrollments/checkout/:reference", checkoutHandler.ByReference)
		api.POST("/orders", orderHandler.Place)
		api.POST("/newsletter/subscribe", newsletterHandler.Subscribe)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/downloads", downloadHandler.Download)

		session := api.Group("", internalmiddleware.Session(cfg.Checkout.SessionHeader))
		{
			session.POST("/enrollments/checkout", checkoutHandler.Start)
			session.GET("/enrollments/checkout/status", checkoutHandler.Status)
			session.POST("/enrollments/checkout/cancel", checkoutHandler.Cancel)
			session.GET("/enrollments/profile", profileHandler.Get)
			session.PUT("/enrollments/profile", profileHandler.Put)
			session.DELETE("/enrollments/profile", profileHandler.Delete)
		}

		admin := api.Group("/admin", internalmiddleware.JWT(authService))
		{
			admin.GET("/payments", adminHandler.ListPayments)
			admin.GET("/payments/export", adminHandler.ExportPayments)
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/receipts/:reference", adminHandler.ReceiptLink)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	paymentService.Stop()
	receiptQueue.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
