package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/middleware"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := util.RegisterValidators(); err != nil {
		panic(err)
	}
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	users  *repository.UserRepository
	cfg    *config.Config
	sims   *service.SimulationService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	cfg := &config.Config{
		JWT:       config.JWTConfig{Secret: "controller-secret", ExpireTime: time.Hour},
		Mail:      config.MailConfig{Provider: "log", ResetURL: "http://localhost:3000/reset"},
		Simulator: config.SimulatorConfig{MaxHistory: 20, SessionMinutes: 15},
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	simRepo := repository.NewSimulationRepository(db)
	csatRepo := repository.NewCSATRepository(db)
	certRepo := repository.NewCertificateRepository(db)

	storage := &service.LocalStorageProvider{Config: &config.StorageConfig{Type: "local", LocalPath: t.TempDir()}}
	gamification := service.NewGamificationService(userRepo, badgeRepo, nil)
	certificates := service.NewCertificateService(certRepo, courseRepo, userRepo, storage)
	courses := service.NewCourseService(db, courseRepo, enrollmentRepo, progressRepo, gamification, certificates)
	sims := service.NewSimulationService(simRepo, gamification, cfg.Simulator)
	analytics := service.NewAnalyticsService(csatRepo, userRepo, enrollmentRepo, progressRepo, simRepo, badgeRepo)
	auth := service.NewAuthService(userRepo, cfg, service.NewMemoryTokenStore(), service.LogMailer{})
	users := service.NewUserService(userRepo)

	authCtl := NewAuthController(auth, users)
	userCtl := NewUserController(users)
	courseCtl := NewCourseController(courses)
	gameCtl := NewGamificationController(gamification)
	simCtl := NewSimulationController(sims, nil)
	analyticsCtl := NewAnalyticsController(analytics)
	certCtl := NewCertificateController(certificates)
	health := NewHealthController(db, nil)

	r := gin.New()
	public := r.Group("/api")
	public.GET("/health", health.HealthCheck)
	public.POST("/register", authCtl.Register)
	public.POST("/login", authCtl.Login)
	public.GET("/courses", courseCtl.ListCourses)
	public.GET("/courses/:id", courseCtl.GetCourse)
	public.GET("/leaderboard", gameCtl.Leaderboard)
	public.GET("/certificates/verify/:number", certCtl.Verify)

	authed := r.Group("/api")
	authed.Use(middleware.AuthMiddleware(cfg, userRepo))
	authed.GET("/session", authCtl.Session)
	authed.PUT("/profile", userCtl.UpdateProfile)
	authed.DELETE("/profile", userCtl.DeleteAccount)
	authed.POST("/courses/:id/enroll", courseCtl.Enroll)
	authed.GET("/courses/:id/progress", courseCtl.GetProgress)
	authed.POST("/lessons/:id/complete", courseCtl.CompleteLesson)
	authed.GET("/gamification/stats", gameCtl.Stats)
	authed.POST("/csat", analyticsCtl.RecordCSAT)
	authed.GET("/dashboard", analyticsCtl.Dashboard)
	authed.GET("/certificates", certCtl.List)
	authed.POST("/simulations", simCtl.Start)
	authed.GET("/simulations/:id", simCtl.Get)
	authed.POST("/simulations/:id/messages", simCtl.SendMessage)
	authed.POST("/simulations/:id/complete", simCtl.Complete)
	authed.GET("/simulations/:id/ws", simCtl.Live)

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg, userRepo), middleware.RoleMiddleware(model.Trainer))
	admin.POST("/courses", courseCtl.CreateCourse)
	admin.POST("/courses/:id/modules", courseCtl.AddModule)
	admin.POST("/modules/:id/lessons", courseCtl.AddLesson)
	admin.GET("/csat/summary", analyticsCtl.CSATSummary)

	return &testServer{router: r, db: db, users: userRepo, cfg: cfg, sims: sims}
}

// createUser 直接写库并返回其令牌
func (s *testServer) createUser(t *testing.T, name string, role model.UserRole) (*model.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{Name: name, Email: name + "@example.com", Password: string(hash), Role: role, Locale: "de"}
	require.NoError(t, s.users.Create(context.Background(), u))
	token, err := util.GenerateJWT(u, s.cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	return u, token
}

// envelope 统一响应，Data 延迟解析
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   util.ErrorKind  `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
