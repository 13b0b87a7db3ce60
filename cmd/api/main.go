package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-registry-api/api/swagger"
	"github.com/noah-isme/sma-registry-api/internal/handler"
	"github.com/noah-isme/sma-registry-api/internal/migrations"
	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/internal/repository"
	"github.com/noah-isme/sma-registry-api/internal/server"
	"github.com/noah-isme/sma-registry-api/internal/service"
	"github.com/noah-isme/sma-registry-api/pkg/cache"
	"github.com/noah-isme/sma-registry-api/pkg/config"
	"github.com/noah-isme/sma-registry-api/pkg/database"
	"github.com/noah-isme/sma-registry-api/pkg/jobs"
	"github.com/noah-isme/sma-registry-api/pkg/logger"
)

// @title SMA Registry API
// @version 1.0.0
// @description School registry: users, schools, classes, subjects and the academic calendar.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	migrator, err := migrations.New(db, logr)
	if err != nil {
		logr.Fatal("failed to load migrations", zap.Error(err))
	}
	if applied, err := migrator.Up(ctx); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	} else if applied > 0 {
		logr.Info("schema migrated", zap.Int("applied", applied))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo.Enabled())

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	classRepo := repository.NewStudentClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	termRepo := repository.NewAcademicTermRepository(db)
	sessionRepo := repository.NewAcademicSessionRepository(db)

	auditSvc := service.NewAuditService(userRepo, metrics, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     logr,
	})
	auditSvc.AttachQueue(auditQueue)
	auditQueue.Start(context.Background())

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, classRepo, auditSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, metrics, validate, logr)
	schoolSvc := service.NewSchoolService(schoolRepo, cacheSvc, metrics, validate, logr)
	classSvc := service.NewStudentClassService(classRepo, schoolRepo, userRepo, cacheSvc, metrics, validate, logr)
	termSvc := service.NewAcademicTermService(termRepo, cacheSvc, metrics, validate, logr)
	sessionSvc := service.NewAcademicSessionService(sessionRepo, cacheSvc, metrics, validate, logr)
	calendarSvc := service.NewAcademicCalendarService(termRepo, sessionRepo, service.AcademicCalendarConfig{
		CurrentTermID:    cfg.Academic.CurrentTermID,
		CurrentSessionID: cfg.Academic.CurrentSessionID,
	}, logr)
	exportSvc := service.NewExportService(classSvc, logr)

	if created, err := userSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminEmail, models.Gender(cfg.Bootstrap.AdminGender)); err != nil {
		logr.Error("failed to bootstrap admin", zap.Error(err))
	} else if created {
		logr.Info("bootstrap admin created", zap.String("username", cfg.Bootstrap.AdminUsername))
	}

	checks := map[string]handler.Pinger{"database": handler.PingFunc(db.PingContext)}
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo
	}

	router := server.NewRouter(server.RouterConfig{
		APIPrefix:  cfg.APIPrefix,
		EnableDocs: cfg.Env != config.EnvProduction,
		Logger:     logr,
		Tokens:     authSvc,
		Audit:      auditSvc,
		Observer:   metrics,
	}, server.Handlers{
		Auth:             handler.NewAuthHandler(authSvc),
		Users:            handler.NewUserHandler(userSvc),
		Subjects:         handler.NewSubjectHandler(subjectSvc),
		Schools:          handler.NewSchoolHandler(schoolSvc, classSvc),
		StudentClasses:   handler.NewStudentClassHandler(classSvc, exportSvc),
		AcademicTerms:    handler.NewAcademicTermHandler(termSvc),
		AcademicSessions: handler.NewAcademicSessionHandler(sessionSvc),
		Calendar:         handler.NewAcademicCalendarHandler(calendarSvc),
		Metrics:          handler.NewMetricsHandler(metrics, checks),
	})

	logr.Info("server starting", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
	if err := server.New(cfg, router, logr).Run(ctx); err != nil {
		logr.Error("server failed", zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := auditQueue.Stop(drainCtx); err != nil {
		logr.Warn("audit queue did not drain", zap.Error(err))
	}
}
