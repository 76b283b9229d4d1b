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
	"github.com/go-playground/validator/v10"

	"github.com/examcell/centre-portal-api/internal/handler"
	"github.com/examcell/centre-portal-api/internal/middleware"
	"github.com/examcell/centre-portal-api/internal/repository"
	"github.com/examcell/centre-portal-api/internal/service"
	"github.com/examcell/centre-portal-api/pkg/cache"
	"github.com/examcell/centre-portal-api/pkg/config"
	"github.com/examcell/centre-portal-api/pkg/database"
	"github.com/examcell/centre-portal-api/pkg/gdrive"
	"github.com/examcell/centre-portal-api/pkg/jobs"
	"github.com/examcell/centre-portal-api/pkg/logger"
	"github.com/examcell/centre-portal-api/pkg/mailer"
	corsmiddleware "github.com/examcell/centre-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/examcell/centre-portal-api/pkg/middleware/requestid"
	"github.com/examcell/centre-portal-api/pkg/storage"
)

// @title Exam Centre Portal API
// @version 1.0.0
// @description Administrative portal for examination centres, batches, students and hall tickets
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
		logr.Sugar().Warnw("redis unavailable, caching and otp storage degraded", "error", err)
		redisClient = nil
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}
	backupStore, err := storage.NewLocalStorage(cfg.Backup.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare backup directory", "error", err)
	}

	var drive *gdrive.Client
	if _, err := os.Stat(cfg.Drive.CredentialsFile); err == nil {
		drive, err = gdrive.NewClient(ctx, cfg.Drive)
		if err != nil {
			logr.Sugar().Warnw("drive client unavailable, backups disabled", "error", err)
		}
	} else {
		logr.Sugar().Infow("drive credentials not found, backups disabled", "path", cfg.Drive.CredentialsFile)
	}

	validate := validator.New()

	centreRepo := repository.NewCentreRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	markRepo := repository.NewMarkRepository(db)
	userRepo := repository.NewUserRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	mail := mailer.NewSendGrid(cfg.Mail, logr)

	gradingSvc := service.NewGradingService(studentRepo, logr)
	hallTicketSvc := service.NewHallTicketService(studentRepo, centreRepo, cfg.BoardName, cfg.HallTicket.ApprovalDelay, logr)
	centreSvc := service.NewCentreService(centreRepo, optionRepo, gradingSvc, cacheRepo, uploadStore, validate, logr)
	batchSvc := service.NewBatchService(batchRepo, centreRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, batchRepo, markRepo, cacheRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, studentRepo, centreRepo, cacheRepo, mail, cfg.Admin, cfg.JWT, validate, logr)
	dashboardSvc := service.NewDashboardService(centreRepo, studentRepo, gradingSvc, hallTicketSvc, studentSvc, cacheRepo, cfg.Dashboard.CacheTTL, logr)

	backupSvc := service.NewBackupService(markRepo, backupStore, nil, logr)
	if drive != nil {
		backupSvc = service.NewBackupService(markRepo, backupStore, drive, logr)
	}

	var backupQueue *jobs.Queue
	if drive != nil {
		backupQueue = jobs.NewQueue("marks-backup", backupSvc.JobHandler(), jobs.QueueConfig{
			Workers:    cfg.Backup.WorkerConcurrency,
			MaxRetries: cfg.Backup.WorkerRetries,
			RetryDelay: 30 * time.Second,
			Logger:     logr,
		})
		backupQueue.Start(ctx)
		defer backupQueue.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	metrics := middleware.NewMetrics(nil)

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc, logr),
		Centres:     handler.NewCentreHandler(centreSvc, cfg.Uploads.MaxFileSizeBytes, logr),
		Batches:     handler.NewBatchHandler(batchSvc, logr),
		Students:    handler.NewStudentHandler(studentSvc, logr),
		HallTickets: handler.NewHallTicketHandler(hallTicketSvc, studentSvc, logr),
		Dashboards:  handler.NewDashboardHandler(dashboardSvc, logr),
		Backups:     handler.NewBackupHandler(backupSvc, backupQueue, logr),
	}, authSvc, metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
