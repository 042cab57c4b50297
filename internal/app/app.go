package app

import (
	"context"
	"ecole_backend/internal/config"
	"ecole_backend/internal/controller"
	"ecole_backend/internal/repository"
	"ecole_backend/internal/service"
	"ecole_backend/internal/util"
	"ecole_backend/pkg/database"
	"ecole_backend/pkg/logger"
	"ecole_backend/pkg/monitoring"
	"ecole_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	tokens    *util.TokenResolver
	services  *services
	scheduler gocron.Scheduler
	tracer    *sdktrace.TracerProvider

	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	admin       *repository.AdminRepository
	lesson      *repository.LessonRepository
	attempt     *repository.QuizAttemptRepository
	progress    *repository.ProgressRepository
	achievement *repository.AchievementRepository
}

type services struct {
	auth         *service.AuthService
	admin        *service.AdminService
	achievement  *service.AchievementService
	gamification *service.GamificationService
	progress     *service.ProgressService
	levelJob     *service.LevelReconciler
}

type controllers struct {
	auth         *controller.AuthController
	gamification *controller.GamificationController
	achievement  *controller.AchievementController
	progress     *controller.ProgressController
	user         *controller.UserController
	admin        *controller.AdminController
	health       *controller.HealthController
}

// RegisterConfigCallback adds a hook run after every config reload.
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig runs the reload hooks with the new config.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		admin:       repository.NewAdminRepository(db),
		lesson:      repository.NewLessonRepository(db),
		attempt:     repository.NewQuizAttemptRepository(db),
		progress:    repository.NewProgressRepository(db),
		achievement: repository.NewAchievementRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}
	zl := logger.Log

	s.admin = service.NewAdminService(repos.admin, repos.user, zl)
	s.auth = service.NewAuthService(repos.user, s.admin, cfg, zl)
	s.achievement = service.NewAchievementService(
		db,
		repos.achievement,
		repos.user,
		repos.lesson,
		repos.attempt,
		repos.progress,
		zl,
	)
	s.gamification = service.NewGamificationService(
		db,
		repos.user,
		repos.lesson,
		repos.attempt,
		repos.progress,
		s.achievement,
		zl,
	)
	s.progress = service.NewProgressService(repos.progress)
	s.levelJob = service.NewLevelReconciler(repos.user, zl)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth, s.admin),
		gamification: controller.NewGamificationController(s.gamification, s.achievement),
		achievement:  controller.NewAchievementController(s.achievement),
		progress:     controller.NewProgressController(s.progress),
		user:         controller.NewUserController(s.gamification, s.progress),
		admin:        controller.NewAdminController(s.admin),
		health:       controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) registerDefaultCallbacks() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.tokens.SetLegacyEnabled(cfg.Auth.LegacyTokensEnabled)
		logger.SetMode(cfg.Server.Mode)
		util.SetDebug(cfg.Server.IsDebug())
		logger.Log.Info("Runtime settings updated",
			zap.String("mode", cfg.Server.Mode),
			zap.Bool("legacy_tokens", cfg.Auth.LegacyTokensEnabled),
		)
	})
}

// startBackgroundTasks schedules the level reconciliation job. A non-positive
// interval disables it.
func (a *App) startBackgroundTasks(s *services) error {
	minutes := a.Config.Jobs.LevelReconcileMinutes
	if minutes <= 0 {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(time.Duration(minutes)*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := s.levelJob.Run(ctx); err != nil {
				logger.Log.Error("level reconciliation failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	sched.Start()
	a.scheduler = sched
	return nil
}

// prepareDatabase migrates and seeds. Release mode only migrates when forced.
func prepareDatabase(cfg *config.Config, db *gorm.DB) error {
	if cfg.Server.Mode == "release" && !cfg.ForceMigrate {
		return nil
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	n, err := database.SeedAchievements(context.Background(), db)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Log.Info("Default achievements seeded", zap.Int("count", n))
	}
	return nil
}

// newApp wires everything on top of already opened stores.
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		tokens: util.NewTokenResolver(cfg.JWT.Secret, cfg.Auth.LegacyTokensEnabled),
	}
	util.SetDebug(cfg.Server.IsDebug())
	app.registerDefaultCallbacks()

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db)
	controllers := app.initControllers(app.services)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.IsDebug())
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := prepareDatabase(cfg, db); err != nil {
		logger.Log.Fatal("Failed to prepare database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 限流会退回到进程内实现
		logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		rdb = nil
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("ecole-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := newApp(cfg, db, rdb)
	app.tracer = tp

	if !cfg.MigrateOnly {
		if err := app.startBackgroundTasks(app.services); err != nil {
			logger.Log.Fatal("Failed to start background tasks", zap.Error(err))
		}
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
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
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	log.Println("Server exiting")
}

// Close stops background work and releases connections.
func (a *App) Close(ctx context.Context) {
	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			logger.Log.Error("Failed to stop scheduler", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
