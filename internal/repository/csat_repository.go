package repository

import (
	"context"
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
)

type CSATRepository struct {
	DB *gorm.DB
}

func NewCSATRepository(db *gorm.DB) *CSATRepository {
	return &CSATRepository{DB: db}
}

type ScoreCount struct {
	Score int
	Count int64
}

type CategoryAverage struct {
	Category string
	Count    int64
	Average  float64
}

func (r *CSATRepository) Create(ctx context.Context, m *model.CSATMetric) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *CSATRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.CSATMetric, error) {
	var list []model.CSATMetric
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// scope userID 为 0 时统计全部用户
func (r *CSATRepository) scope(ctx context.Context, userID uint) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&model.CSATMetric{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	return q
}

func (r *CSATRepository) Distribution(ctx context.Context, userID uint) ([]ScoreCount, error) {
	var rows []ScoreCount
	err := r.scope(ctx, userID).
		Select("score, COUNT(*) AS count").
		Group("score").
		Order("score ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *CSATRepository) CategoryAverages(ctx context.Context, userID uint) ([]CategoryAverage, error) {
	var rows []CategoryAverage
	err := r.scope(ctx, userID).
		Select("category, COUNT(*) AS count, AVG(score) AS average").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	return rows, err
}
