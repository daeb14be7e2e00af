package service

import (
	"context"
	"fmt"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

// testEnv 组装好依赖的服务集合
type testEnv struct {
	db           *gorm.DB
	users        *repository.UserRepository
	badges       *repository.BadgeRepository
	gamification *GamificationService
	certificates *CertificateService
	courses      *CourseService
	simulations  *SimulationService
	analytics    *AnalyticsService
	auth         *AuthService
	userSvc      *UserService
	mailer       *recordingMailer
	storage      *LocalStorageProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	simRepo := repository.NewSimulationRepository(db)
	csatRepo := repository.NewCSATRepository(db)
	certRepo := repository.NewCertificateRepository(db)

	storage := &LocalStorageProvider{Config: &config.StorageConfig{Type: "local", LocalPath: t.TempDir()}}
	mailer := &recordingMailer{}
	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Mail: config.MailConfig{Provider: "log", ResetURL: "http://localhost:3000/reset"},
	}

	gamification := NewGamificationService(userRepo, badgeRepo, nil)
	certificates := NewCertificateService(certRepo, courseRepo, userRepo, storage)

	return &testEnv{
		db:           db,
		users:        userRepo,
		badges:       badgeRepo,
		gamification: gamification,
		certificates: certificates,
		courses:      NewCourseService(db, courseRepo, enrollmentRepo, progressRepo, gamification, certificates),
		simulations:  NewSimulationService(simRepo, gamification, config.SimulatorConfig{MaxHistory: 7, SessionMinutes: 15}),
		analytics:    NewAnalyticsService(csatRepo, userRepo, enrollmentRepo, progressRepo, simRepo, badgeRepo),
		auth:         NewAuthService(userRepo, cfg, NewMemoryTokenStore(), mailer),
		userSvc:      NewUserService(userRepo),
		mailer:       mailer,
		storage:      storage,
	}
}

func (e *testEnv) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Password: "x", Role: model.Learner, Locale: "de"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) createBadge(t *testing.T, code string, points int, rarity model.BadgeRarity) *model.Badge {
	t.Helper()
	b := &model.Badge{Code: code, Name: code, PointsRequired: points, Rarity: rarity}
	require.NoError(t, e.badges.Create(context.Background(), b))
	return b
}

// createCourse 建一门课程，每个模块 lessonsPerModule 个课时
func (e *testEnv) createCourse(t *testing.T, modules, lessonsPerModule int) (*model.Course, []model.Lesson) {
	t.Helper()
	ctx := context.Background()
	course, err := e.courses.CreateCourse(ctx, CourseRequest{Title: "Kurs", Difficulty: 2, EstimatedHours: 1.5})
	require.NoError(t, err)

	var lessons []model.Lesson
	for m := 0; m < modules; m++ {
		mod, err := e.courses.AddModule(ctx, course.ID, ModuleRequest{Title: fmt.Sprintf("Modul %d", m+1), SortOrder: m})
		require.NoError(t, err)
		for l := 0; l < lessonsPerModule; l++ {
			lesson, err := e.courses.AddLesson(ctx, mod.ID, LessonRequest{
				Title:       fmt.Sprintf("Lektion %d.%d", m+1, l+1),
				ContentType: model.ContentText,
				SortOrder:   l,
			})
			require.NoError(t, err)
			lessons = append(lessons, *lesson)
		}
	}
	return course, lessons
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *recordingMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}
