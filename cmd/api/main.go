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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/responsainveniree/student-info-api/api/swagger"
	"github.com/responsainveniree/student-info-api/internal/authz"
	"github.com/responsainveniree/student-info-api/internal/handler"
	"github.com/responsainveniree/student-info-api/internal/middleware"
	"github.com/responsainveniree/student-info-api/internal/repository"
	"github.com/responsainveniree/student-info-api/internal/service"
	"github.com/responsainveniree/student-info-api/pkg/cache"
	"github.com/responsainveniree/student-info-api/pkg/config"
	"github.com/responsainveniree/student-info-api/pkg/database"
	"github.com/responsainveniree/student-info-api/pkg/jobs"
	"github.com/responsainveniree/student-info-api/pkg/logger"
	"github.com/responsainveniree/student-info-api/pkg/mailer"
	corsmiddleware "github.com/responsainveniree/student-info-api/pkg/middleware/cors"
	reqidmiddleware "github.com/responsainveniree/student-info-api/pkg/middleware/requestid"
	"github.com/responsainveniree/student-info-api/pkg/observability"
	"github.com/responsainveniree/student-info-api/pkg/pagination"
)

// @title Student Info API
// @version 1.0.0
// @description School information backend: marks, attendance, problem points and accounts.
// @BasePath /api/v1
// @schemes http https
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

	flush, err := observability.InitSentry(cfg.Sentry, cfg.Env)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Sugar().Fatalw("failed to apply migrations", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	loc := cfg.School.Location
	paging := service.PagingConfig{DefaultPageSize: cfg.School.DefaultPageSize, MaxPageSize: cfg.School.MaxPageSize}
	mode := pagination.ModeOrthogonal
	if cfg.School.LegacySearchMode {
		mode = pagination.ModeLegacy
	}

	accountRepo := repository.NewAccountRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	markRepo := repository.NewMarkRepository(db)
	otpRepo := repository.NewOTPRepository(redisClient)
	problemRepo := repository.NewProblemPointRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	policy := authz.NewPolicy(repository.NewDirectoryRepository(db))

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	notifier := service.NewQueuedOTPNotifier(
		mailer.New(mailer.Config{
			SendgridAPIKey: cfg.Mail.SendgridAPIKey,
			FromName:       cfg.Mail.FromName,
			FromAddress:    cfg.Mail.FromAddress,
		}, logr),
		jobs.Config{Workers: cfg.Mail.Workers, MaxRetries: cfg.Mail.MaxRetries, RetryDelay: 5 * time.Second, Logger: logr},
	)
	notifier.Start(ctx)
	defer notifier.Stop()

	authSvc := service.NewAuthService(accountRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	resetSvc := service.NewPasswordResetService(otpRepo, accountRepo, notifier, validate, logr, service.PasswordResetConfig{
		OTPTTL:      cfg.PasswordReset.OTPTTL,
		MaxRequests: cfg.PasswordReset.MaxRequests,
		Window:      cfg.PasswordReset.Window,
		MaxAttempts: cfg.PasswordReset.MaxAttempts,
		BCryptCost:  cfg.School.BCryptCost,
	})
	accountSvc := service.NewAccountService(accountRepo, policy, validate, logr, service.AccountConfig{
		BCryptCost:            cfg.School.BCryptCost,
		DefaultImportPassword: cfg.School.DefaultImportPassword,
	}, loc)
	curriculumSvc := service.NewCurriculumService(curriculumRepo, policy, validate, logr, loc)
	markSvc := service.NewMarkService(markRepo, curriculumRepo, studentRepo, teacherRepo, policy, metricsSvc, validate, logr, paging, loc)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, policy, validate, logr, service.ListingConfig{
		PagingConfig:    paging,
		MinSearchLength: cfg.School.MinSearchLength,
		Mode:            mode,
	}, loc)
	problemSvc := service.NewProblemPointService(problemRepo, policy, validate, logr, cfg.School.SinglePerDayPolicy, paging, loc)

	var metricsHandler http.Handler
	if metricsSvc != nil {
		metricsHandler = metricsSvc.Handler()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, resetSvc, accountSvc),
		Account:      handler.NewAccountHandler(accountSvc),
		Curriculum:   handler.NewCurriculumHandler(curriculumSvc),
		Period:       handler.NewPeriodHandler(loc),
		Mark:         handler.NewMarkHandler(markSvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc, loc),
		ProblemPoint: handler.NewProblemPointHandler(problemSvc, paging.DefaultPageSize, paging.MaxPageSize),
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"postgres": db.PingContext,
			"redis":    cache.Ping(redisClient),
		}, metricsHandler, logr),
	}, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
