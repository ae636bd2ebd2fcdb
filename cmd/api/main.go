package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hagwon-ops/timetable-api/api/swagger"
	"github.com/hagwon-ops/timetable-api/internal/handler"
	"github.com/hagwon-ops/timetable-api/internal/middleware"
	"github.com/hagwon-ops/timetable-api/internal/models"
	"github.com/hagwon-ops/timetable-api/internal/repository"
	"github.com/hagwon-ops/timetable-api/internal/service"
	"github.com/hagwon-ops/timetable-api/pkg/cache"
	"github.com/hagwon-ops/timetable-api/pkg/config"
	"github.com/hagwon-ops/timetable-api/pkg/database"
	"github.com/hagwon-ops/timetable-api/pkg/logger"
	corsmiddleware "github.com/hagwon-ops/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hagwon-ops/timetable-api/pkg/middleware/requestid"
)

// @title Hagwon Timetable API
// @version 1.0.0
// @description Weekly timetable materialization and conflict resolution for a tutoring academy
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, week-view caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	compatRepo := repository.NewCompatibilityRepository(db)
	statusLogRepo := repository.NewStatusLogRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classTypeRepo := repository.NewClassTypeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	compatSvc := service.NewCompatibilityService(compatRepo, validate, logr)
	conflictSvc := service.NewConflictService(classRepo, compatSvc, metricsSvc, validate, logr)
	weekSvc := service.NewWeekService(classRepo, enrollmentRepo, overrideRepo, instructorRepo, cacheRepo, cfg.Timetable.WeekCacheTTL, metricsSvc, validate, logr)
	conflictSvc.SetWeekMaterializer(weekSvc)
	classSvc := service.NewClassService(classRepo, enrollmentRepo, studentRepo, classTypeRepo, instructorRepo, overrideRepo, statusLogRepo, conflictSvc, cacheRepo, cfg.Timetable.MinMoveDuration, validate, logr)
	importSvc := service.NewImportService(classRepo, enrollmentRepo, classTypeRepo, classSvc, cfg.Timetable.ImportBatchMax, validate, logr)

	timetableHandler := handler.NewTimetableHandler(weekSvc)
	classHandler := handler.NewClassHandler(classSvc)
	importHandler := handler.NewImportHandler(importSvc)
	compatHandler := handler.NewCompatibilityHandler(compatSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Identity(cfg.JWT.Secret))

	api.GET("/timetable/week", timetableHandler.Week)
	api.GET("/classes/:id/logs", classHandler.StatusLogs)
	api.GET("/compatibility-rules", compatHandler.List)

	staff := api.Group("")
	staff.Use(middleware.RequireRole(models.ViewerRoleStaff))
	staff.POST("/classes/check-conflict", classHandler.CheckConflict)
	staff.POST("/classes", classHandler.Create)
	staff.PATCH("/classes/:id/status", classHandler.UpdateStatus)
	staff.POST("/classes/:id/move", classHandler.Move)
	staff.PUT("/classes/:id/overrides/:date", classHandler.SetOverride)
	staff.DELETE("/classes/:id/overrides/:date", classHandler.DeleteOverride)
	staff.POST("/import/classes", importHandler.Import)
	staff.PUT("/compatibility-rules", compatHandler.Upsert)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
