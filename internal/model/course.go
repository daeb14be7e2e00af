package model

type ContentType string

const (
	ContentVideo ContentType = "video"
	ContentText  ContentType = "text"
	ContentAudio ContentType = "audio"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentText, ContentAudio:
		return true
	}
	return false
}

// swagger:model Course
type Course struct {
	BaseModel
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Version        int            `gorm:"default:1" json:"version"`
	IsActive       bool           `gorm:"index" json:"isActive"`
	Difficulty     int            `gorm:"default:1" json:"difficulty"`
	EstimatedHours float64        `gorm:"default:0" json:"estimatedHours"`
	Modules        []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type CourseModule struct {
	BaseModel
	CourseID    uint     `gorm:"index;not null" json:"courseId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	SortOrder   int      `gorm:"default:0" json:"sortOrder"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

type Lesson struct {
	BaseModel
	ModuleID         uint        `gorm:"index;not null" json:"moduleId"`
	Title            string      `gorm:"size:255;not null" json:"title"`
	ContentType      ContentType `gorm:"size:10;not null" json:"contentType"`
	Content          string      `gorm:"type:text" json:"content"`
	EstimatedMinutes int         `gorm:"default:0" json:"estimatedMinutes"`
	SortOrder        int         `gorm:"default:0" json:"sortOrder"`
}

func (Lesson) TableName() string {
	return "lessons"
}
