package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/novaticstar/hoosgottime/api/swagger"
	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/handler"
	internalmiddleware "github.com/novaticstar/hoosgottime/internal/middleware"
	"github.com/novaticstar/hoosgottime/internal/repository"
	"github.com/novaticstar/hoosgottime/internal/service"
	"github.com/novaticstar/hoosgottime/pkg/cache"
	"github.com/novaticstar/hoosgottime/pkg/config"
	"github.com/novaticstar/hoosgottime/pkg/database"
	"github.com/novaticstar/hoosgottime/pkg/jobs"
	"github.com/novaticstar/hoosgottime/pkg/logger"
	corsmiddleware "github.com/novaticstar/hoosgottime/pkg/middleware/cors"
	reqidmiddleware "github.com/novaticstar/hoosgottime/pkg/middleware/requestid"
)

// @title HoosGotTime API
// @version 1.0.0
// @description Personal time-blocking scheduler for students
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	tasks := repository.NewTaskRepository(db)
	meals := repository.NewMealRepository(db)
	multipliers := repository.NewMultiplierRepository(db)
	blocks := repository.NewScheduleBlockRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.CacheTTL, logr, redisClient != nil)
	authService := service.NewAuthService(users, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	onboardingService := service.NewOnboardingService(users, meals, db, validate, logr)
	courseService := service.NewCourseService(courses, db, validate, logr)
	taskService := service.NewTaskService(tasks, courses, validate, logr)
	scheduleService := service.NewScheduleService(
		users, courses, tasks, meals, multipliers, blocks,
		db, cacheService, metrics, validate, logr,
		service.ScheduleConfig{
			DefaultHorizonDays: cfg.Scheduler.DefaultHorizonDays,
			MaxHorizonDays:     cfg.Scheduler.MaxHorizonDays,
			CacheTTL:           cfg.Scheduler.CacheTTL,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rescheduleQueue := jobs.NewQueue("reschedule", func(ctx context.Context, job jobs.Job) error {
		_, err := scheduleService.Run(ctx, job.UserID, dto.RunScheduleRequest{})
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Scheduler.WorkerConcurrency,
		MaxRetries: cfg.Scheduler.WorkerRetries,
		Logger:     logr,
	})
	rescheduleQueue.Start(ctx)
	defer rescheduleQueue.Stop()

	completionService := service.NewCompletionService(tasks, courses, multipliers, rescheduleQueue, validate, logr, cfg.Scheduler.RescheduleOnCompletion)

	authHandler := handler.NewAuthHandler(authService)
	onboardingHandler := handler.NewOnboardingHandler(onboardingService)
	courseHandler := handler.NewCourseHandler(courseService)
	taskHandler := handler.NewTaskHandler(taskService, completionService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

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
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		authed := api.Group("")
		authed.Use(internalmiddleware.JWT(authService))
		{
			authed.GET("/onboarding", onboardingHandler.Get)
			authed.PUT("/onboarding", onboardingHandler.Save)

			authed.GET("/courses", courseHandler.List)
			authed.POST("/courses", courseHandler.Create)

			authed.GET("/tasks", taskHandler.List)
			authed.POST("/tasks", taskHandler.Create)
			authed.POST("/tasks/:id/complete", taskHandler.Complete)

			authed.GET("/schedule", scheduleHandler.Get)
			authed.POST("/schedule/run", scheduleHandler.Run)
			authed.GET("/schedule/export", scheduleHandler.Export)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
