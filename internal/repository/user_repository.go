package repository

import (
	"context"
	"satistrain_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists 软删除的用户视为不存在
func (r *UserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) UpdateFields(ctx context.Context, userID uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(fields).Error
}

// AddPoints 原子增加积分，返回更新后的积分
func (r *UserRepository) AddPoints(ctx context.Context, userID uint, delta int) (int, error) {
	var points int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("points", gorm.Expr("points + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var pts []int
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Pluck("points", &pts).Error; err != nil {
			return err
		}
		if len(pts) == 0 {
			return gorm.ErrRecordNotFound
		}
		points = pts[0]
		return nil
	})
	return points, err
}

func (r *UserRepository) FindTopByPoints(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Order("points DESC").Order("id ASC").Limit(limit).Find(&users).Error
	return users, err
}

// CountWithMorePoints 用于计算排名
func (r *UserRepository) CountWithMorePoints(ctx context.Context, points int) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("points > ?", points).Count(&n).Error
	return n, err
}

func (r *UserRepository) FindIDsActiveSince(ctx context.Context, since time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("last_seen >= ? OR last_login >= ? OR updated_at >= ?", since, since, since).
		Pluck("id", &ids).Error
	return ids, err
}

// UpdateLastSeen 只更新 last_seen，不触发 updated_at
func (r *UserRepository) UpdateLastSeen(ctx context.Context, userID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).UpdateColumn("last_seen", at).Error
}

// SoftDelete 设置 deleted_at，之后的普通查询不再返回该用户
func (r *UserRepository) SoftDelete(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Delete(&model.User{}, userID).Error
}
