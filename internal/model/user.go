package model

import (
	"time"
)

type UserRole string

const (
	Learner UserRole = "learner"
	Trainer UserRole = "trainer"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'learner'" json:"role"`
	Locale    string    `gorm:"size:10;default:'de'" json:"locale"`
	Points    int       `gorm:"default:0;index" json:"points"`
	LastLogin time.Time `json:"lastLogin"`
	LastSeen  time.Time `gorm:"index" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
