package model

import (
	"time"

	"gorm.io/gorm"
)

// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AllModels 参与自动迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&CourseModule{},
		&Lesson{},
		&Enrollment{},
		&LessonProgress{},
		&Badge{},
		&BadgeAward{},
		&SimulationSession{},
		&SimulationStep{},
		&CSATMetric{},
		&Certificate{},
	}
}
