package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pathways_backend/internal/config"
	"pathways_backend/internal/controller"
	"pathways_backend/internal/repository"
	"pathways_backend/internal/service"
	"pathways_backend/internal/util"
	"pathways_backend/pkg/configwatcher"
	"pathways_backend/pkg/database"
	"pathways_backend/pkg/logger"
	"pathways_backend/pkg/monitoring"
	"pathways_backend/pkg/security"
	"pathways_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
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
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
}

type repositories struct {
	cache   *repository.DefinitionCache
	unit    *repository.UnitRepository
	attempt *repository.AttemptRepository
}

type services struct {
	storage    *service.StorageService
	progress   *service.ProgressService
	assessment *service.AssessmentService
	catalog    *service.CatalogService
}

type controllers struct {
	assessment *controller.AssessmentController
	progress   *controller.ProgressController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	cache := repository.NewDefinitionCache(rdb, cfg.Assessment.DefinitionCacheTTL())
	return &repositories{
		cache:   cache,
		unit:    repository.NewUnitRepository(db, cache),
		attempt: repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	var locker service.Locker = service.NewLocalLocker()
	if rdb != nil {
		// 多实例部署时通过 redis 串行化同一用户同一单元的提交
		locker = service.NewRedisLocker(rdb, cfg.Assessment.CommitLockTTL())
	}

	s.storage = service.NewStorageService(cfg)
	s.progress = service.NewProgressService(db, repos.unit, repos.attempt, locker)
	s.assessment = service.NewAssessmentService(repos.unit, repos.attempt, s.progress, s.storage)
	s.catalog = service.NewCatalogService(db, repos.cache, s.storage)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		repos.cache.SetTTL(newCfg.Assessment.DefinitionCacheTTL())
		logger.Log.Info("Definition cache TTL updated", zap.Duration("ttl", repos.cache.TTL()))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		assessment: controller.NewAssessmentController(s.assessment),
		progress:   controller.NewProgressController(s.progress),
		health:     controller.NewHealthController(db, rdb, s.storage),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New wires repositories, services and routes around already opened stores.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		ctx:    ctx,
		cancel: cancel,
	}

	repos := app.initRepositories(db, rdb, cfg)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/badges", filepath.Join(cfg.Storage.LocalPath, "badges"))
	}

	return app
}

// NewApp opens the configured stores, migrates, optionally seeds, and builds the App.
func NewApp(cfg *config.Config) (*App, error) {
	if err := logger.InitLogger(cfg); err != nil {
		return nil, err
	}
	logger.Log.Info("Logger initialized successfully", zap.String("level", logger.Log.Level().String()))

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, err
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		logger.Log.Info("Database migrated")
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}, nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("pathways", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	if cfg.SeedFile != "" {
		if err := app.Seed(context.Background(), cfg.SeedFile); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Seed imports a YAML catalog file; badge files are resolved relative to it.
func (a *App) Seed(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	cat, err := service.ParseCatalog(f)
	if err != nil {
		return err
	}
	return a.services.catalog.Import(ctx, cat, filepath.Dir(file))
}

func (a *App) watchConfig() {
	go func() {
		err := configwatcher.Watch(a.ctx, "configs", func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	a.watchConfig()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
}

// Close stops background workers and flushes traces.
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
