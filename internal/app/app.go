package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/controller"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/configwatcher"
	"satistrain_backend/pkg/database"
	"satistrain_backend/pkg/logger"
	"satistrain_backend/pkg/monitoring"
	"satistrain_backend/pkg/security"
	"satistrain_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 徽章补发周期与活跃窗口
	reevaluateInterval = 10 * time.Minute
	activeWindow       = 24 * time.Hour
	reevaluateWorkers  = 4
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	ConfigDir string

	services        *services
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	enrollment  *repository.EnrollmentRepository
	progress    *repository.ProgressRepository
	badge       *repository.BadgeRepository
	simulation  *repository.SimulationRepository
	csat        *repository.CSATRepository
	certificate *repository.CertificateRepository
}

type services struct {
	storage      service.StorageProvider
	mailer       service.Mailer
	tokens       service.TokenStore
	auth         *service.AuthService
	user         *service.UserService
	gamification *service.GamificationService
	certificate  *service.CertificateService
	course       *service.CourseService
	simulation   *service.SimulationService
	analytics    *service.AnalyticsService
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	course       *controller.CourseController
	gamification *controller.GamificationController
	simulation   *controller.SimulationController
	analytics    *controller.AnalyticsController
	certificate  *controller.CertificateController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		progress:    repository.NewProgressRepository(db),
		badge:       repository.NewBadgeRepository(db),
		simulation:  repository.NewSimulationRepository(db),
		csat:        repository.NewCSATRepository(db),
		certificate: repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(ctx context.Context, repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.storage = service.NewStorageProvider(ctx, &cfg.Storage)

	mailer, err := service.NewMailer(ctx, &cfg.Mail)
	if err != nil {
		return nil, err
	}
	s.mailer = mailer

	// 多实例部署必须启用 Redis，否则重置链接只在签发它的实例上有效
	if rdb != nil {
		s.tokens = service.NewRedisTokenStore(rdb)
	} else {
		s.tokens = service.NewMemoryTokenStore()
	}

	s.auth = service.NewAuthService(repos.user, cfg, s.tokens, s.mailer)
	s.user = service.NewUserService(repos.user)
	s.gamification = service.NewGamificationService(repos.user, repos.badge, rdb)
	s.certificate = service.NewCertificateService(repos.certificate, repos.course, repos.user, s.storage)
	s.course = service.NewCourseService(db, repos.course, repos.enrollment, repos.progress, s.gamification, s.certificate)
	s.simulation = service.NewSimulationService(repos.simulation, s.gamification, cfg.Simulator)
	s.analytics = service.NewAnalyticsService(repos.csat, repos.user, repos.enrollment, repos.progress, repos.simulation, repos.badge)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth, s.user),
		user:         controller.NewUserController(s.user),
		course:       controller.NewCourseController(s.course),
		gamification: controller.NewGamificationController(s.gamification),
		simulation:   controller.NewSimulationController(s.simulation, a.Config.CORS.AllowedOrigins),
		analytics:    controller.NewAnalyticsController(s.analytics),
		certificate:  controller.NewCertificateController(s.certificate),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerConfigCallbacks 可热更新的配置项：日志级别、模拟器参数
func (a *App) registerConfigCallbacks(s *services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetMode(cfg.Server.Mode)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.simulation.ApplyConfig(cfg.Simulator)
	})
}

func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(reevaluateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-ticker.C:
				awarded, err := s.gamification.ReevaluateActiveUsers(a.ctx, time.Now().Add(-activeWindow), reevaluateWorkers)
				if err != nil {
					logger.Log.Error("Badge re-evaluation failed", zap.Error(err))
					continue
				}
				if awarded > 0 {
					logger.Log.Info("Badge re-evaluation finished", zap.Int("awarded", awarded))
				}
			}
		}
	}()

	if a.ConfigDir == "" {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(a.ctx, a.ConfigDir, func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()
}

// initHTTP 组装仓储、服务、控制器，挂载中间件和全部路由
func (a *App) initHTTP(db *gorm.DB, rdb *redis.Client) error {
	repos := a.initRepositories(db)
	services, err := a.initServices(a.ctx, repos, a.Config, db, rdb)
	if err != nil {
		return err
	}
	a.services = services
	controllers := a.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	a.Router = router

	a.setupMiddlewares(router, a.Config)
	a.registerRoutes(router, controllers, repos, a.Config)

	// 本地存储（含远程存储不可用时的回退）通过静态路由提供证书文件
	if local, ok := services.storage.(*service.LocalStorageProvider); ok {
		router.Static("/uploads", local.Config.LocalPath)
	}
	return nil
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		DB:        db,
		ConfigDir: configDir,
		ctx:       ctx,
		cancel:    cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	if err := util.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := app.initHTTP(db, rdb); err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerConfigCallbacks(app.services)
	app.startBackgroundTasks(app.services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// 停止后台任务、限流清理和配置监听
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
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

	logger.Log.Info("Server exiting")
}
