package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"smartform_backend/internal/config"
	"smartform_backend/internal/controller"
	"smartform_backend/internal/repository"
	"smartform_backend/internal/service"
	"smartform_backend/pkg/database"
	"smartform_backend/pkg/logger"
	"smartform_backend/pkg/monitoring"
	"smartform_backend/pkg/security"
	"smartform_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user       *repository.UserRepository
	form       *repository.FormRepository
	submission *repository.SubmissionRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	form       *service.FormService
	submission *service.SubmissionService
	stats      *service.StatsService
	ai         *service.AIService
	compare    *service.CompareService
	export     *service.ExportService
}

type controllers struct {
	auth       *controller.AuthController
	form       *controller.FormController
	submission *controller.SubmissionController
	stats      *controller.StatsController
	compare    *controller.CompareController
	export     *controller.ExportController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		form:       repository.NewFormRepository(db),
		submission: repository.NewSubmissionRepository(db, rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.form = service.NewFormService(repos.form, repos.submission)
	s.submission = service.NewSubmissionService(repos.form, repos.submission)
	s.stats = service.NewStatsService(repos.form, repos.submission)
	s.ai = service.NewAIService(cfg.AI)
	s.compare = service.NewCompareService(repos.form, repos.submission, s.ai)
	s.export = service.NewExportService(repos.form, repos.submission, s.compare)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		form:       controller.NewFormController(s.form, s.ai),
		submission: controller.NewSubmissionController(s.submission, s.form, s.storage, s.ai),
		stats:      controller.NewStatsController(s.stats),
		compare:    controller.NewCompareController(s.compare),
		export:     controller.NewExportController(s.export),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("smartform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
