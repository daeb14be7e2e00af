package service

import (
	"context"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/monitoring"
	"strconv"
	"strings"
	"time"
)

type AnalyticsService struct {
	CSATRepo       *repository.CSATRepository
	UserRepo       *repository.UserRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.ProgressRepository
	SimRepo        *repository.SimulationRepository
	BadgeRepo      *repository.BadgeRepository
}

func NewAnalyticsService(
	csatRepo *repository.CSATRepository,
	userRepo *repository.UserRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.ProgressRepository,
	simRepo *repository.SimulationRepository,
	badgeRepo *repository.BadgeRepository,
) *AnalyticsService {
	return &AnalyticsService{
		CSATRepo:       csatRepo,
		UserRepo:       userRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
		SimRepo:        simRepo,
		BadgeRepo:      badgeRepo,
	}
}

type CSATRequest struct {
	Score    int    `json:"score" binding:"required"`
	Category string `json:"category" binding:"required,max=64"`
	Notes    string `json:"notes"`
}

type CSATSummary struct {
	Count        int64              `json:"count"`
	Average      float64            `json:"average"`
	Distribution map[int]int64      `json:"distribution"`
	Categories   map[string]float64 `json:"categories"`
}

type Dashboard struct {
	EnrolledCourses   int64   `json:"enrolledCourses"`
	InProgressCourses int64   `json:"inProgressCourses"`
	CompletedCourses  int64   `json:"completedCourses"`
	LessonsCompleted  int64   `json:"lessonsCompleted"`
	LearningTime      int64   `json:"learningTime"`
	AverageScore      float64 `json:"averageScore"`
	Simulations       int64   `json:"simulations"`
	SimulationAverage float64 `json:"simulationAverage"`
	Points            int     `json:"points"`
	Level             int     `json:"level"`
	Badges            int64   `json:"badges"`
	CSATAverage       float64 `json:"csatAverage"`
}

// RecordCSAT 记录一次满意度评分，分值必须在 1-5 之间
func (s *AnalyticsService) RecordCSAT(ctx context.Context, userID uint, score int, category, notes string) (*model.CSATMetric, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	if score < 1 || score > 5 {
		return nil, util.NewValidationError("CSAT score must be between 1 and 5, got %d", score)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, util.NewValidationError("category is required")
	}

	metric := &model.CSATMetric{
		UserID:     userID,
		Score:      score,
		Category:   category,
		Notes:      notes,
		RecordedAt: time.Now(),
	}
	if err := s.CSATRepo.Create(ctx, metric); err != nil {
		return nil, util.ClassifyError(err)
	}
	monitoring.CSATSamples.WithLabelValues(category, strconv.Itoa(score)).Inc()
	return metric, nil
}

func (s *AnalyticsService) ListCSAT(ctx context.Context, userID uint, limit int) ([]model.CSATMetric, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.CSATRepo.ListByUser(ctx, userID, limit)
	return list, util.ClassifyError(err)
}

// GetCSATSummary userID 为 0 时汇总所有用户
func (s *AnalyticsService) GetCSATSummary(ctx context.Context, userID uint) (*CSATSummary, error) {
	dist, err := s.CSATRepo.Distribution(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	cats, err := s.CSATRepo.CategoryAverages(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	summary := &CSATSummary{
		Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Categories:   make(map[string]float64, len(cats)),
	}
	var sum int64
	for _, row := range dist {
		summary.Distribution[row.Score] = row.Count
		summary.Count += row.Count
		sum += int64(row.Score) * row.Count
	}
	if summary.Count > 0 {
		summary.Average = round1(float64(sum) / float64(summary.Count))
	}
	for _, c := range cats {
		summary.Categories[c.Category] = round1(c.Average)
	}
	return summary, nil
}

func (s *AnalyticsService) GetDashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}

	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	byStatus, err := s.EnrollmentRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	progress, err := s.ProgressRepo.UserTotals(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	sims, err := s.SimRepo.CompletedTotals(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	badges, err := s.BadgeRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	csat, err := s.GetCSATSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	var enrolled int64
	for _, n := range byStatus {
		enrolled += n
	}
	level, _ := CalculateLevel(user.Points)

	return &Dashboard{
		EnrolledCourses:   enrolled,
		InProgressCourses: byStatus[model.EnrollmentInProgress],
		CompletedCourses:  byStatus[model.EnrollmentCompleted],
		LessonsCompleted:  progress.Completed,
		LearningTime:      progress.TimeSpent,
		AverageScore:      round1(progress.AvgScore),
		Simulations:       sims.Count,
		SimulationAverage: round1(sims.AvgTotal),
		Points:            user.Points,
		Level:             level,
		Badges:            badges,
		CSATAverage:       csat.Average,
	}, nil
}
