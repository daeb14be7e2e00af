package repository

import (
	"context"
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) List(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.WithContext(ctx).Order("points_required ASC").Order("id ASC").Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) FindByID(ctx context.Context, id uint) (*model.Badge, error) {
	var b model.Badge
	if err := r.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BadgeRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Badge{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *BadgeRepository) Create(ctx context.Context, b *model.Badge) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

// Award 插入获奖记录，已存在时不做任何事；返回是否新插入
func (r *BadgeRepository) Award(ctx context.Context, award *model.BadgeAward) (bool, error) {
	res := r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(award)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *BadgeRepository) AwardsByUser(ctx context.Context, userID uint) ([]model.BadgeAward, error) {
	var awards []model.BadgeAward
	err := r.DB.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&awards).Error
	return awards, err
}

// FindEligible 积分已达到门槛但尚未授予的徽章
func (r *BadgeRepository) FindEligible(ctx context.Context, userID uint, points int) ([]model.Badge, error) {
	var badges []model.Badge
	awarded := r.DB.Model(&model.BadgeAward{}).Select("badge_id").Where("user_id = ?", userID)
	err := r.DB.WithContext(ctx).
		Where("points_required <= ?", points).
		Where("id NOT IN (?)", awarded).
		Order("points_required ASC").
		Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.BadgeAward{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// CountByUsers 批量统计徽章数量
func (r *BadgeRepository) CountByUsers(ctx context.Context, userIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		UserID uint
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.BadgeAward{}).
		Select("user_id, COUNT(*) AS count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.UserID] = row.Count
	}
	return result, nil
}
