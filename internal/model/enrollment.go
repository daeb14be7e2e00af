package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
	EnrollmentPaused     EnrollmentStatus = "paused"
	EnrollmentCancelled  EnrollmentStatus = "cancelled"
)

func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentEnrolled, EnrollmentInProgress, EnrollmentCompleted, EnrollmentPaused, EnrollmentCancelled:
		return true
	}
	return false
}

// Enrollment 用户与课程的关联，(user_id, course_id) 为主键
type Enrollment struct {
	UserID      uint             `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CourseID    uint             `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
	Status      EnrollmentStatus `gorm:"size:20;default:'enrolled';index" json:"status"`
	EnrolledAt  time.Time        `json:"enrolledAt"`
	CompletedAt *time.Time       `json:"completedAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Course      *Course          `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// LessonProgress 课时进度，(user_id, lesson_id) 为主键
type LessonProgress struct {
	UserID      uint       `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	LessonID    uint       `gorm:"primaryKey;autoIncrement:false" json:"lessonId"`
	CompletedAt *time.Time `json:"completedAt"`
	Score       int        `gorm:"default:0" json:"score"`
	TimeSpent   int        `gorm:"default:0" json:"timeSpent"` // 秒
	Attempts    int        `gorm:"default:0" json:"attempts"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
