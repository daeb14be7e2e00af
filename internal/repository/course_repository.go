package repository

import (
	"context"
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) List(ctx context.Context, activeOnly bool) ([]model.Course, error) {
	var courses []model.Course
	query := r.DB.WithContext(ctx).Order("difficulty ASC").Order("id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByID(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := r.DB.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// FindWithContent 预加载模块和课时，按 sort_order 排序
func (r *CourseRepository) FindWithContent(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("id ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Create(course).Error
}

func (r *CourseRepository) Update(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(course).Error
}

func (r *CourseRepository) FindModule(ctx context.Context, id uint) (*model.CourseModule, error) {
	var m model.CourseModule
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CourseRepository) CreateModule(ctx context.Context, m *model.CourseModule) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *CourseRepository) CreateLesson(ctx context.Context, l *model.Lesson) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *CourseRepository) FindLesson(ctx context.Context, id uint) (*model.Lesson, error) {
	var l model.Lesson
	if err := r.DB.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// CountLessons 课程下未删除课时总数
func (r *CourseRepository) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND course_modules.deleted_at IS NULL", courseID).
		Count(&n).Error
	return n, err
}
