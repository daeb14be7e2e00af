package repository

import (
	"context"
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Find(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) Exists(ctx context.Context, userID, courseID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error
	return n > 0, err
}

func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

func (r *EnrollmentRepository) Update(ctx context.Context, e *model.Enrollment) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(e).Error
}

func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.DB.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&list).Error
	return list, err
}

// CountByStatus 按状态统计用户的报名数
func (r *EnrollmentRepository) CountByStatus(ctx context.Context, userID uint) (map[model.EnrollmentStatus]int64, error) {
	var rows []struct {
		Status model.EnrollmentStatus
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[model.EnrollmentStatus]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}
