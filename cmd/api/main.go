package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zewdu444/takethestage/internal/gateway/chapa"
	"github.com/zewdu444/takethestage/internal/handler"
	"github.com/zewdu444/takethestage/internal/middleware"
	"github.com/zewdu444/takethestage/internal/models"
	"github.com/zewdu444/takethestage/internal/repository"
	"github.com/zewdu444/takethestage/internal/service"
	"github.com/zewdu444/takethestage/pkg/cache"
	"github.com/zewdu444/takethestage/pkg/config"
	"github.com/zewdu444/takethestage/pkg/database"
	"github.com/zewdu444/takethestage/pkg/jobs"
	"github.com/zewdu444/takethestage/pkg/logger"
	corsmiddleware "github.com/zewdu444/takethestage/pkg/middleware/cors"
	reqidmiddleware "github.com/zewdu444/takethestage/pkg/middleware/requestid"
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Repositories.
	slotRepo := repository.NewSlotRepository(db)
	enrolleeRepo := repository.NewEnrolleeRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	teacherShiftRepo := repository.NewTeacherShiftRepository(db)
	txRunner := repository.NewTxRunner(db)

	metricsSvc := service.NewMetricsService()

	// Redis is optional: without it availability listings hit the database
	// every time.
	var cacheSvc *service.CacheService
	if cfg.Availability.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, true)
		}
	}

	// Services.
	availabilitySvc := service.NewAvailabilityService(slotRepo, cacheSvc, logr)
	allocationSvc := service.NewAllocationService(slotRepo, enrolleeRepo, txRunner, metricsSvc, availabilitySvc, cfg.Allocation.MaxAttempts, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, slotRepo, txRunner, cfg.Allocation.DefaultClassSize, nil, logr)
	teacherSvc := service.NewTeacherAllocationService(teacherShiftRepo, slotRepo, enrolleeRepo, txRunner, availabilitySvc, nil, logr)

	chapaClient := chapa.NewClient(cfg.Chapa, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, enrolleeRepo, chapaClient, allocationSvc, txRunner, logr)

	// Handlers.
	allocationHandler := handler.NewAllocationHandler(allocationSvc)
	institutionHandler := handler.NewInstitutionHandler(institutionSvc, availabilitySvc)
	teacherHandler := handler.NewTeacherAllocationHandler(teacherSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)

	// Enrollee-facing endpoints; allocation runs only after the payment
	// gateway confirms settlement.
	api.GET("/enrollees/:id/allocation", allocationHandler.Status)
	api.POST("/payments/:id/verify", paymentHandler.Verify)
	api.GET("/payments/status", paymentHandler.Status)
	api.GET("/teachers/:id/shifts", teacherHandler.ListShifts)

	// Admin endpoints require a token from the identity collaborator.
	admin := api.Group("")
	admin.Use(middleware.JWT(cfg.JWT.Secret))
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	admin.POST("/enrollees/:id/allocation", allocationHandler.Allocate)
	admin.POST("/institutions", institutionHandler.Create)
	admin.GET("/institutions/:id", institutionHandler.Get)
	admin.GET("/institutions/:id/slots/unassigned", institutionHandler.UnassignedSlots)
	admin.POST("/teacher-allocations", teacherHandler.Assign)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Payments.Enabled {
		startPaymentPoller(ctx, cfg, paymentSvc, logr)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

// startPaymentPoller sweeps pending payments on an interval so enrollees who
// never return from the gateway redirect still get settled and allocated.
func startPaymentPoller(ctx context.Context, cfg *config.Config, payments *service.PaymentService, logr *zap.Logger) {
	pool := jobs.NewPool("payment-poll", func(ctx context.Context, _ jobs.Sweep) error {
		return payments.ProcessPending(ctx, 50)
	}, jobs.PoolConfig{
		Workers:    cfg.Payments.WorkerConcurrency,
		MaxRetries: cfg.Payments.WorkerRetries,
		Logger:     logr,
	})
	pool.Start(ctx)
	pool.RunEvery(ctx, cfg.Payments.PollInterval, "pending-payments")
}
