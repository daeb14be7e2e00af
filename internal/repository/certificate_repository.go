package repository

import (
	"context"
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) Find(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	var c model.Certificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) FindByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	var c model.Certificate
	err := r.DB.WithContext(ctx).Preload("Course").Where("number = ?", number).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) Create(ctx context.Context, c *model.Certificate) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *CertificateRepository) Update(ctx context.Context, c *model.Certificate) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	var list []model.Certificate
	err := r.DB.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&list).Error
	return list, err
}
