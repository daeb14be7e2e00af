package model

import "time"

type Certificate struct {
	BaseModel
	UserID      uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"userId"`
	CourseID    uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"courseId"`
	Number      string    `gorm:"size:32;uniqueIndex;not null" json:"number"`
	IssuedAt    time.Time `json:"issuedAt"`
	DocumentURL string    `gorm:"size:512" json:"documentUrl"`
	Course      *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}
