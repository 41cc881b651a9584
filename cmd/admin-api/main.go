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
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/brightpath/coach-admin-api/api/swagger"
	"github.com/brightpath/coach-admin-api/internal/handler"
	"github.com/brightpath/coach-admin-api/internal/middleware"
	"github.com/brightpath/coach-admin-api/internal/models"
	"github.com/brightpath/coach-admin-api/internal/repository"
	"github.com/brightpath/coach-admin-api/internal/service"
	"github.com/brightpath/coach-admin-api/pkg/cache"
	"github.com/brightpath/coach-admin-api/pkg/config"
	"github.com/brightpath/coach-admin-api/pkg/database"
	"github.com/brightpath/coach-admin-api/pkg/jobs"
	"github.com/brightpath/coach-admin-api/pkg/logger"
	corsmiddleware "github.com/brightpath/coach-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/brightpath/coach-admin-api/pkg/middleware/requestid"
)

// @title BrightPath Coach Admin API
// @version 1.0.0
// @description Enrollment lifecycle, coach payouts and tax withholding
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Reports fall back to direct queries without the cache.
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	riskSvc := service.NewRiskService(enrollmentRepo, cfg.Risk, metricsSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, auditRepo, service.NewUUIDCertificateGenerator(), cfg.Risk, validate, logr)
	settlementSvc := service.NewSettlementService(payoutRepo, ledgerRepo, auditRepo, metricsSvc, cfg.Settlement, validate, logr)
	reportSvc := service.NewReportService(ledgerRepo, redisClient, cfg.Reports.CacheTTL, metricsSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	riskHandler := handler.NewRiskHandler(riskSvc, enrollmentSvc)
	settlementHandler := handler.NewSettlementHandler(settlementSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	auditHandler := handler.NewAuditHandler(auditRepo)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.Use(middleware.WithResponseMeta())
	authed.GET("/auth/me", authHandler.Me)

	enrollments := authed.Group("/enrollments")
	enrollments.GET("", enrollmentHandler.List)
	enrollments.GET("/:id", enrollmentHandler.Get)
	enrollments.GET("/:id/risk", riskHandler.Assess)
	enrollments.POST("/:id/complete",
		middleware.RequireRoles(models.RoleAdmin, models.RoleOps),
		middleware.Audit(auditRepo, models.AuditActionEnrollmentComplete, "enrollments"),
		enrollmentHandler.Complete)
	enrollments.POST("/:id/extend",
		middleware.RequireRoles(models.RoleAdmin, models.RoleOps),
		middleware.Audit(auditRepo, models.AuditActionEnrollmentExtend, "enrollments"),
		enrollmentHandler.Extend)

	risk := authed.Group("/risk")
	risk.GET("/board", riskHandler.Board)
	risk.POST("/sweep", middleware.RequireRoles(models.RoleAdmin, models.RoleOps), riskHandler.Sweep)

	payouts := authed.Group("/payouts", middleware.RequireRoles(models.RoleAdmin, models.RoleOps))
	payouts.GET("", settlementHandler.ListPayouts)
	payouts.POST("",
		middleware.Audit(auditRepo, models.AuditActionPayoutSchedule, "payouts"),
		settlementHandler.SchedulePayout)

	settlements := authed.Group("/settlements", middleware.RequireRoles(models.RoleAdmin, models.RoleOps))
	settlements.POST("/batch", settlementHandler.ProcessBatch)

	reports := authed.Group("/reports", middleware.RequireRoles(models.RoleAdmin, models.RoleOps))
	reports.GET("/withholding", reportHandler.Withholding)
	reports.GET("/withholding/csv", reportHandler.WithholdingCSV)
	reports.GET("/withholding/pdf", reportHandler.WithholdingPDF)

	authed.GET("/audit", middleware.RequireRoles(models.RoleAdmin), auditHandler.List)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sweepQueue *jobs.Queue
	if cfg.Sweep.Enabled {
		sweepQueue = jobs.NewQueue("risk-sweep", func(ctx context.Context, job jobs.Job) error {
			result, err := riskSvc.Sweep(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			logr.Sugar().Infow("risk sweep finished",
				"job_id", job.ID, "scanned", result.Scanned, "overdue", len(result.Overdue))
			return nil
		}, jobs.QueueConfig{Workers: cfg.Sweep.Workers, Logger: logr})
		sweepQueue.Start(ctx)
		defer sweepQueue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Sweep.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					job := jobs.Job{ID: uuid.NewString(), Type: "risk-sweep"}
					if err := sweepQueue.Enqueue(job); err != nil {
						logr.Sugar().Warnw("failed to enqueue risk sweep", "error", err)
					}
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
