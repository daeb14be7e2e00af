package service

import (
	"context"
	"errors"
	"math"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CourseService struct {
	DB             *gorm.DB
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.ProgressRepository
	Gamification   *GamificationService
	Certificates   *CertificateService
}

func NewCourseService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.ProgressRepository,
	gamification *GamificationService,
	certificates *CertificateService,
) *CourseService {
	return &CourseService{
		DB:             db,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
		Gamification:   gamification,
		Certificates:   certificates,
	}
}

type CourseRequest struct {
	Title          string  `json:"title" binding:"required,max=255"`
	Description    string  `json:"description"`
	IsActive       *bool   `json:"isActive"`
	Difficulty     int     `json:"difficulty" binding:"omitempty,difficulty"`
	EstimatedHours float64 `json:"estimatedHours" binding:"min=0"`
}

type ModuleRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

type LessonRequest struct {
	Title            string            `json:"title" binding:"required,max=255"`
	ContentType      model.ContentType `json:"contentType" binding:"required"`
	Content          string            `json:"content"`
	EstimatedMinutes int               `json:"estimatedMinutes" binding:"min=0"`
	SortOrder        int               `json:"sortOrder"`
}

type CompleteLessonRequest struct {
	Score     int `json:"score" binding:"min=0,max=100"`
	TimeSpent int `json:"timeSpent" binding:"min=0"`
}

// LessonCompletion 完成课时后的结果
type LessonCompletion struct {
	Progress        *model.LessonProgress `json:"progress"`
	PointsAwarded   int                   `json:"pointsAwarded"`
	CourseCompleted bool                  `json:"courseCompleted"`
	NewBadges       []model.Badge         `json:"newBadges,omitempty"`
	Certificate     *model.Certificate    `json:"certificate,omitempty"`
}

type CourseProgress struct {
	CourseID         uint                   `json:"courseId"`
	Status           model.EnrollmentStatus `json:"status"`
	CompletedLessons int64                  `json:"completedLessons"`
	TotalLessons     int64                  `json:"totalLessons"`
	Percent          float64                `json:"percent"`
	TimeSpent        int64                  `json:"timeSpent"`
	AverageScore     float64                `json:"averageScore"`
}

func (s *CourseService) ListCourses(ctx context.Context, activeOnly bool) ([]model.Course, error) {
	courses, err := s.CourseRepo.List(ctx, activeOnly)
	return courses, util.ClassifyError(err)
}

func (s *CourseService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	if id == 0 {
		return nil, util.NewValidationError("courseId is required")
	}
	course, err := s.CourseRepo.FindWithContent(ctx, id)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	return course, nil
}

func validateCourse(req CourseRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return util.NewValidationError("title is required")
	}
	if req.Difficulty != 0 && (req.Difficulty < 1 || req.Difficulty > 5) {
		return util.NewValidationError("difficulty must be between 1 and 5")
	}
	if req.EstimatedHours < 0 {
		return util.NewValidationError("estimatedHours must not be negative")
	}
	return nil
}

func (s *CourseService) CreateCourse(ctx context.Context, req CourseRequest) (*model.Course, error) {
	if err := validateCourse(req); err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Version:        1,
		IsActive:       true,
		Difficulty:     req.Difficulty,
		EstimatedHours: req.EstimatedHours,
	}
	if course.Difficulty == 0 {
		course.Difficulty = 1
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := s.CourseRepo.Create(ctx, course); err != nil {
		return nil, util.ClassifyError(err)
	}
	return course, nil
}

// UpdateCourse 修改课程内容，版本号加一
func (s *CourseService) UpdateCourse(ctx context.Context, id uint, req CourseRequest) (*model.Course, error) {
	if id == 0 {
		return nil, util.NewValidationError("courseId is required")
	}
	if err := validateCourse(req); err != nil {
		return nil, err
	}

	course, err := s.CourseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.EstimatedHours = req.EstimatedHours
	if req.Difficulty != 0 {
		course.Difficulty = req.Difficulty
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}
	course.Version++

	if err := s.CourseRepo.Update(ctx, course); err != nil {
		return nil, util.ClassifyError(err)
	}
	return course, nil
}

func (s *CourseService) AddModule(ctx context.Context, courseID uint, req ModuleRequest) (*model.CourseModule, error) {
	if courseID == 0 {
		return nil, util.NewValidationError("courseId is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, util.NewValidationError("title is required")
	}
	if _, err := s.CourseRepo.FindByID(ctx, courseID); err != nil {
		return nil, util.ClassifyError(err)
	}

	m := &model.CourseModule{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := s.CourseRepo.CreateModule(ctx, m); err != nil {
		return nil, util.ClassifyError(err)
	}
	return m, nil
}

func (s *CourseService) AddLesson(ctx context.Context, moduleID uint, req LessonRequest) (*model.Lesson, error) {
	if moduleID == 0 {
		return nil, util.NewValidationError("moduleId is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, util.NewValidationError("title is required")
	}
	if !req.ContentType.Valid() {
		return nil, util.NewValidationError("invalid content type %q", req.ContentType)
	}
	if req.EstimatedMinutes < 0 {
		return nil, util.NewValidationError("estimatedMinutes must not be negative")
	}
	if _, err := s.CourseRepo.FindModule(ctx, moduleID); err != nil {
		return nil, util.ClassifyError(err)
	}

	l := &model.Lesson{
		ModuleID:         moduleID,
		Title:            strings.TrimSpace(req.Title),
		ContentType:      req.ContentType,
		Content:          req.Content,
		EstimatedMinutes: req.EstimatedMinutes,
		SortOrder:        req.SortOrder,
	}
	if err := s.CourseRepo.CreateLesson(ctx, l); err != nil {
		return nil, util.ClassifyError(err)
	}
	return l, nil
}

// Enroll 报名课程，重复报名返回 ValidationError
func (s *CourseService) Enroll(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	if userID == 0 || courseID == 0 {
		return nil, util.NewValidationError("userId and courseId are required")
	}

	course, err := s.CourseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if !course.IsActive {
		return nil, util.NewValidationError("course %d is not active", courseID)
	}

	exists, err := s.EnrollmentRepo.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if exists {
		return nil, util.NewValidationError("already enrolled in course %d", courseID)
	}

	enrollment := &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     model.EnrollmentEnrolled,
		EnrolledAt: time.Now(),
	}
	if err := s.EnrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, util.ClassifyError(err)
	}
	enrollment.Course = course
	return enrollment, nil
}

func (s *CourseService) ListEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	list, err := s.EnrollmentRepo.ListByUser(ctx, userID)
	return list, util.ClassifyError(err)
}

// UpdateEnrollmentStatus 修改报名状态，已完成的报名不能再修改
func (s *CourseService) UpdateEnrollmentStatus(ctx context.Context, userID, courseID uint, status model.EnrollmentStatus) (*model.Enrollment, error) {
	if userID == 0 || courseID == 0 {
		return nil, util.NewValidationError("userId and courseId are required")
	}
	if !status.Valid() {
		return nil, util.NewValidationError("invalid enrollment status %q", status)
	}

	enrollment, err := s.EnrollmentRepo.Find(ctx, userID, courseID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if enrollment.Status == status {
		return enrollment, nil
	}
	if enrollment.Status == model.EnrollmentCompleted {
		return nil, util.NewValidationError("completed enrollments cannot be changed")
	}

	enrollment.Status = status
	if status == model.EnrollmentCompleted {
		now := time.Now()
		enrollment.CompletedAt = &now
	}
	if err := s.EnrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, util.ClassifyError(err)
	}
	return enrollment, nil
}

// LessonPoints 首次完成课时获得的积分
func LessonPoints(score int) int {
	return util.LessonBasePoints + score/10
}

// CompleteLesson 记录课时完成情况；课程全部完成时发放积分和证书
func (s *CourseService) CompleteLesson(ctx context.Context, userID, lessonID uint, score, timeSpent int) (*LessonCompletion, error) {
	if userID == 0 || lessonID == 0 {
		return nil, util.NewValidationError("userId and lessonId are required")
	}
	if score < 0 || score > 100 {
		return nil, util.NewValidationError("score must be between 0 and 100")
	}
	if timeSpent < 0 {
		return nil, util.NewValidationError("timeSpent must not be negative")
	}

	lesson, err := s.CourseRepo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	module, err := s.CourseRepo.FindModule(ctx, lesson.ModuleID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	courseID := module.CourseID

	var (
		progress     *model.LessonProgress
		firstTime    bool
		courseDone   bool
		lessonsTotal int64
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollments := repository.NewEnrollmentRepository(tx)
		progressRepo := repository.NewProgressRepository(tx)
		courses := repository.NewCourseRepository(tx)

		enrollment, err := enrollments.Find(ctx, userID, courseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewPermissionError("not enrolled in this course")
		} else if err != nil {
			return err
		}
		if enrollment.Status == model.EnrollmentCancelled {
			return util.NewValidationError("enrollment is cancelled")
		}

		now := time.Now()
		progress, err = progressRepo.Find(ctx, userID, lessonID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			progress = &model.LessonProgress{
				UserID:      userID,
				LessonID:    lessonID,
				CompletedAt: &now,
				Score:       score,
				TimeSpent:   timeSpent,
				Attempts:    1,
			}
			firstTime = true
			if err := progressRepo.Create(ctx, progress); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			progress.Attempts++
			progress.TimeSpent += timeSpent
			if score > progress.Score {
				progress.Score = score
			}
			if progress.CompletedAt == nil {
				progress.CompletedAt = &now
				firstTime = true
			}
			if err := progressRepo.Update(ctx, progress); err != nil {
				return err
			}
		}

		totals, err := progressRepo.CourseTotals(ctx, userID, courseID)
		if err != nil {
			return err
		}
		lessonsTotal, err = courses.CountLessons(ctx, courseID)
		if err != nil {
			return err
		}

		if enrollment.Status == model.EnrollmentCompleted {
			return nil
		}
		if lessonsTotal > 0 && totals.Completed >= lessonsTotal {
			enrollment.Status = model.EnrollmentCompleted
			enrollment.CompletedAt = &now
			courseDone = true
		} else {
			enrollment.Status = model.EnrollmentInProgress
		}
		return enrollments.Update(ctx, enrollment)
	})
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	result := &LessonCompletion{Progress: progress, CourseCompleted: courseDone}
	if firstTime {
		result.PointsAwarded += LessonPoints(score)
	}
	if courseDone {
		result.PointsAwarded += util.CourseCompletePoint
	}

	if result.PointsAwarded > 0 {
		pts, err := s.Gamification.AddPoints(ctx, userID, result.PointsAwarded)
		if err != nil {
			return nil, err
		}
		result.NewBadges = pts.NewBadges
	}

	if courseDone {
		logger.Log.Info("Course completed",
			zap.Uint("userId", userID),
			zap.Uint("courseId", courseID),
			zap.Int64("lessons", lessonsTotal),
		)
		if s.Certificates != nil {
			cert, err := s.Certificates.Issue(ctx, userID, courseID)
			if err != nil {
				return nil, err
			}
			result.Certificate = cert
		}
	}
	return result, nil
}

func (s *CourseService) GetCourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgress, error) {
	if userID == 0 || courseID == 0 {
		return nil, util.NewValidationError("userId and courseId are required")
	}

	enrollment, err := s.EnrollmentRepo.Find(ctx, userID, courseID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	totals, err := s.ProgressRepo.CourseTotals(ctx, userID, courseID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	total, err := s.CourseRepo.CountLessons(ctx, courseID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	p := &CourseProgress{
		CourseID:         courseID,
		Status:           enrollment.Status,
		CompletedLessons: totals.Completed,
		TotalLessons:     total,
		TimeSpent:        totals.TimeSpent,
		AverageScore:     round1(totals.AvgScore),
	}
	if total > 0 {
		p.Percent = round1(float64(totals.Completed) / float64(total) * 100)
	}
	return p, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
