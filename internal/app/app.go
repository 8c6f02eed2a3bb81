package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"qpgen_backend/internal/config"
	"qpgen_backend/internal/controller"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/service"
	"qpgen_backend/pkg/configwatcher"
	"qpgen_backend/pkg/database"
	"qpgen_backend/pkg/logger"
	"qpgen_backend/pkg/monitoring"
	"qpgen_backend/pkg/security"
	"qpgen_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	course   *repository.CourseRepository
	material *repository.MaterialRepository
	job      *repository.GenerationJobRepository
	question *repository.QuestionRepository
	pattern  *repository.PaperPatternRepository
	feedback *repository.FeedbackRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	course     *service.CourseService
	material   *service.MaterialService
	generation *service.GenerationService
	approval   *service.ApprovalService
	question   *service.QuestionService
	pattern    *service.PaperPatternService
	statistics *service.StatisticsService
}

type controllers struct {
	auth       *controller.AuthController
	course     *controller.CourseController
	material   *controller.MaterialController
	generation *controller.GenerationController
	question   *controller.QuestionController
	pattern    *controller.PaperPatternController
	statistics *controller.StatisticsController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		course:   repository.NewCourseRepository(db),
		material: repository.NewMaterialRepository(db),
		job:      repository.NewGenerationJobRepository(db),
		question: repository.NewQuestionRepository(db),
		pattern:  repository.NewPaperPatternRepository(db),
		feedback: repository.NewFeedbackRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.course = service.NewCourseService(repos.course)
	s.material = service.NewMaterialService(repos.material, repos.course, s.storage, service.NewMarkdownSectionSource())

	// 出题后端配置错误直接拒绝启动，避免首个任务才暴露问题
	registry, err := service.NewGeneratorRegistry(cfg.AI)
	if err != nil {
		logger.Log.Fatal("Failed to initialize generator registry", zap.Error(err))
	}
	s.generation = service.NewGenerationService(repos.job, repos.question, s.material, registry, rdb, cfg)

	s.approval = service.NewApprovalService(db, repos.question, repos.pattern, repos.feedback)
	s.question = service.NewQuestionService(repos.question, repos.course)
	s.pattern = service.NewPaperPatternService(repos.pattern, repos.course)
	s.statistics = service.NewStatisticsService(repos.question, repos.pattern, repos.course)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		course:     controller.NewCourseController(s.course),
		material:   controller.NewMaterialController(s.material),
		generation: controller.NewGenerationController(s.generation),
		question:   controller.NewQuestionController(s.question, s.approval, s.auth),
		pattern:    controller.NewPaperPatternController(s.pattern, s.approval, s.auth),
		statistics: controller.NewStatisticsController(s.statistics),
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

// startBackgroundTasks 定时清扫僵死任务。进程崩溃会留下永远停在
// PROCESSING 的记录，让前端一直轮询不到终态
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			n, err := s.generation.FailStaleJobs()
			if err != nil {
				logger.Log.Error("stale job sweep error", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Log.Warn("marked stale generation jobs as failed", zap.Int64("count", n))
			}
		}
	}()
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

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("qpgen-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, os.ModePerm)
		}
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	// 配置热更新：切换出题后端、调整生成参数不需要重启进程
	app.RegisterConfigCallback(services.generation.Reconfigure)
	go configwatcher.WatchConfig(filepath.Join("configs", "config.yaml"), func(newCfg *config.Config) {
		for _, cb := range app.configCallbacks {
			cb(newCfg)
		}
	})

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

	// 关闭服务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
