package model

import "time"

// CSATMetric 一次满意度采样（1-5 分）
type CSATMetric struct {
	BaseModel
	UserID     uint      `gorm:"index;not null" json:"userId"`
	Score      int       `gorm:"not null" json:"score"`
	Category   string    `gorm:"size:64;index;not null" json:"category"`
	Notes      string    `gorm:"type:text" json:"notes"`
	RecordedAt time.Time `gorm:"index" json:"recordedAt"`
}

func (CSATMetric) TableName() string {
	return "csat_metrics"
}
