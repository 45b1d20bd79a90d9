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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-sync/timetable-api/api/swagger"
	"github.com/campus-sync/timetable-api/internal/handler"
	"github.com/campus-sync/timetable-api/internal/middleware"
	"github.com/campus-sync/timetable-api/internal/models"
	"github.com/campus-sync/timetable-api/internal/repository"
	"github.com/campus-sync/timetable-api/internal/service"
	"github.com/campus-sync/timetable-api/pkg/cache"
	"github.com/campus-sync/timetable-api/pkg/config"
	"github.com/campus-sync/timetable-api/pkg/database"
	"github.com/campus-sync/timetable-api/pkg/logger"
	corsmiddleware "github.com/campus-sync/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-sync/timetable-api/pkg/middleware/requestid"
)

// @title Campus Sync Timetable API
// @version 1.0.0
// @description Schedule generation and timetable management for academic periods
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and run locks disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	timeBlockRepo := repository.NewTimeBlockRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	constraintRuleRepo := repository.NewConstraintRuleRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	runLockRepo := repository.NewRunLockRepository(redisClient, cfg.Scheduler.RunLockTTL)

	// Services.
	metricsService := service.NewMetricsService()

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timetable-api",
		Audience:           []string{"timetable-api"},
	})

	snapshotLoader := service.NewSnapshotLoader(
		periodRepo,
		groupRepo,
		teacherRepo,
		roomRepo,
		timeBlockRepo,
		subjectRepo,
		availabilityRepo,
		constraintRuleRepo,
	)

	generatorService := service.NewScheduleGeneratorService(
		snapshotLoader,
		assignmentRepo,
		runLockRepo,
		cacheRepo,
		metricsService,
		validate,
		logr,
		service.ScheduleGeneratorConfig{
			GenerationTimeout:     cfg.Scheduler.GenerationTimeout,
			DefaultMaxWeeklyHours: cfg.Scheduler.DefaultMaxWeeklyHours,
		},
	)

	assignmentService := service.NewAssignmentService(assignmentRepo, cacheRepo, metricsService, cfg.Timetable.CacheTTL, validate, logr)
	availabilityService := service.NewAvailabilityService(availabilityRepo, teacherRepo, validate, logr)
	groupService := service.NewGroupService(groupRepo, subjectRepo, validate, logr)
	timeBlockService := service.NewTimeBlockService(timeBlockRepo, validate, logr)
	constraintRuleService := service.NewConstraintRuleService(constraintRuleRepo, validate, logr)
	catalogService := service.NewCatalogService(periodRepo, teacherRepo, roomRepo, logr)
	exportService := service.NewExportService(assignmentService, periodRepo, nil, nil, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	generationHandler := handler.NewGenerationHandler(generatorService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	groupHandler := handler.NewGroupHandler(groupService)
	timeBlockHandler := handler.NewTimeBlockHandler(timeBlockService)
	constraintRuleHandler := handler.NewConstraintRuleHandler(constraintRuleService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	exportHandler := handler.NewExportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	admin := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	protected.POST("/schedule/generate", admin, generationHandler.Generate)

	protected.GET("/assignments", assignmentHandler.List)
	protected.GET("/assignments/:id", assignmentHandler.Get)
	protected.POST("/assignments", admin, assignmentHandler.Create)
	protected.PUT("/assignments/:id", admin, assignmentHandler.Update)
	protected.DELETE("/assignments/:id", admin, assignmentHandler.Delete)

	protected.GET("/periods", catalogHandler.ListPeriods)
	protected.GET("/periods/:id", catalogHandler.GetPeriod)
	protected.GET("/periods/:id/timetable", assignmentHandler.Timetable)
	protected.GET("/periods/:id/export", exportHandler.Export)

	protected.GET("/teachers", catalogHandler.ListTeachers)
	protected.GET("/teachers/:id", catalogHandler.GetTeacher)
	protected.GET("/rooms", catalogHandler.ListRooms)
	protected.GET("/rooms/:id", catalogHandler.GetRoom)

	protected.GET("/groups", groupHandler.List)
	protected.GET("/groups/:id", groupHandler.Get)
	protected.POST("/groups", admin, groupHandler.Create)
	protected.PUT("/groups/:id", admin, groupHandler.Update)
	protected.DELETE("/groups/:id", admin, groupHandler.Delete)

	protected.GET("/time-blocks", timeBlockHandler.List)
	protected.GET("/time-blocks/:id", timeBlockHandler.Get)
	protected.POST("/time-blocks", admin, timeBlockHandler.Create)
	protected.PUT("/time-blocks/:id", admin, timeBlockHandler.Update)
	protected.DELETE("/time-blocks/:id", admin, timeBlockHandler.Delete)

	protected.GET("/availability", availabilityHandler.List)
	protected.PUT("/availability", availabilityHandler.Upsert)
	protected.POST("/availability/replace", availabilityHandler.Replace)

	protected.GET("/constraint-rules", constraintRuleHandler.List)
	protected.GET("/constraint-rules/:id", constraintRuleHandler.Get)
	protected.POST("/constraint-rules", admin, constraintRuleHandler.Create)
	protected.PUT("/constraint-rules/:id", admin, constraintRuleHandler.Update)
	protected.DELETE("/constraint-rules/:id", admin, constraintRuleHandler.Delete)

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis client", "error", err)
	}
}
