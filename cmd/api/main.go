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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/nebioudaniel/family-academy-api/api/swagger"
	"github.com/nebioudaniel/family-academy-api/internal/handler"
	"github.com/nebioudaniel/family-academy-api/internal/middleware"
	"github.com/nebioudaniel/family-academy-api/internal/models"
	"github.com/nebioudaniel/family-academy-api/internal/repository"
	"github.com/nebioudaniel/family-academy-api/internal/service"
	"github.com/nebioudaniel/family-academy-api/pkg/cache"
	"github.com/nebioudaniel/family-academy-api/pkg/config"
	"github.com/nebioudaniel/family-academy-api/pkg/database"
	"github.com/nebioudaniel/family-academy-api/pkg/logger"
	"github.com/nebioudaniel/family-academy-api/pkg/media"
	corsmiddleware "github.com/nebioudaniel/family-academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nebioudaniel/family-academy-api/pkg/middleware/requestid"
)

// @title Family Academy API
// @version 1.0.0
// @description Course hosting platform API
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
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, true)
	}

	var mediaStore *media.Store
	if cfg.Cloudinary.CloudName != "" {
		mediaStore, err = media.NewStore(cfg.Cloudinary, logr)
		if err != nil {
			logr.Fatal("failed to init media store", zap.Error(err))
		}
	} else {
		logr.Warn("media store disabled, video uploads will not be signed")
	}

	courseRepo := repository.NewCourseRepository(db)
	userRepo := repository.NewUserRepository(db)

	var assetDestroyer interface {
		Destroy(ctx context.Context, publicID string) error
	}
	var uploadSigner interface {
		SignUpload(fileName string) (*media.UploadSignature, error)
	}
	if mediaStore != nil {
		assetDestroyer = mediaStore
		uploadSigner = mediaStore
	}

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, assetDestroyer, cacheSvc, validate, logr)
	teacherSvc := service.NewTeacherService(userRepo, courseRepo, assetDestroyer, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(courseRepo, userRepo, cacheSvc, metrics, logr)
	uploadSvc := service.NewUploadService(uploadSigner)

	publisherSvc := service.NewPublisherService(courseRepo, cacheSvc, cfg.Publisher, logr)
	if cfg.Publisher.AutoPublish {
		publisherSvc.Start(context.Background())
		defer publisherSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	catalogHandler := handler.NewCatalogHandler(courseSvc)
	adminCourseHandler := handler.NewAdminCourseHandler(courseSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/catalog", catalogHandler.List)
	api.GET("/catalog/:id", catalogHandler.Get)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.PUT("/auth/password", authHandler.ChangePassword)

	teacherOnly := authed.Group("", middleware.RequireRoles(models.RoleTeacher))
	teacherOnly.GET("/courses", courseHandler.List)
	teacherOnly.POST("/courses", courseHandler.Create)
	teacherOnly.GET("/courses/:id", courseHandler.Get)
	teacherOnly.PUT("/courses/:id", courseHandler.Update)
	teacherOnly.DELETE("/courses/:id", courseHandler.Delete)
	teacherOnly.POST("/uploads/signature", uploadHandler.Sign)
	teacherOnly.GET("/dashboard/teacher", dashboardHandler.Teacher)

	adminOnly := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
	adminOnly.GET("/dashboard/admin", dashboardHandler.Admin)
	adminOnly.GET("/admin/courses", adminCourseHandler.List)
	adminOnly.GET("/admin/teachers", teacherHandler.List)
	adminOnly.POST("/admin/teachers", teacherHandler.Create)
	adminOnly.GET("/admin/teachers/:id", teacherHandler.Get)
	adminOnly.PUT("/admin/teachers/:id", teacherHandler.Update)
	adminOnly.DELETE("/admin/teachers/:id", teacherHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}
