package repository

import (
	"context"
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// ProgressTotals 聚合后的进度数据
type ProgressTotals struct {
	Completed int64
	TimeSpent int64
	AvgScore  float64
}

func (r *ProgressRepository) Find(ctx context.Context, userID, lessonID uint) (*model.LessonProgress, error) {
	var p model.LessonProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) Create(ctx context.Context, p *model.LessonProgress) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *ProgressRepository) Update(ctx context.Context, p *model.LessonProgress) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

const progressTotalsSelect = "COALESCE(SUM(CASE WHEN lesson_progress.completed_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS completed, " +
	"COALESCE(SUM(lesson_progress.time_spent), 0) AS time_spent, " +
	"COALESCE(AVG(lesson_progress.score), 0) AS avg_score"

// CourseTotals 用户在某门课程下的进度汇总
func (r *ProgressRepository) CourseTotals(ctx context.Context, userID, courseID uint) (*ProgressTotals, error) {
	var totals ProgressTotals
	err := r.DB.WithContext(ctx).Model(&model.LessonProgress{}).
		Select(progressTotalsSelect).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id AND lessons.deleted_at IS NULL").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id AND course_modules.deleted_at IS NULL").
		Where("lesson_progress.user_id = ? AND course_modules.course_id = ?", userID, courseID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// UserTotals 用户全部课时的进度汇总
func (r *ProgressRepository) UserTotals(ctx context.Context, userID uint) (*ProgressTotals, error) {
	var totals ProgressTotals
	err := r.DB.WithContext(ctx).Model(&model.LessonProgress{}).
		Select(progressTotalsSelect).
		Where("lesson_progress.user_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
