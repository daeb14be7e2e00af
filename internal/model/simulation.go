package model

import (
	"time"

	"gorm.io/datatypes"
)

type SimulationStatus string

const (
	SimulationActive    SimulationStatus = "active"
	SimulationCompleted SimulationStatus = "completed"
	SimulationAbandoned SimulationStatus = "abandoned"
)

type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// MessageScore 单条消息的评分
type MessageScore struct {
	Empathy         int `json:"empathy"`
	Clarity         int `json:"clarity"`
	Helpfulness     int `json:"helpfulness"`
	Professionalism int `json:"professionalism"`
	Overall         int `json:"overall"`
}

// swagger:model SimulationSession
type SimulationSession struct {
	BaseModel
	UserID             uint             `gorm:"index;not null" json:"userId"`
	Scenario           string           `gorm:"size:64;not null" json:"scenario"`
	Personality        string           `gorm:"size:32;not null" json:"personality"`
	Status             SimulationStatus `gorm:"size:20;default:'active';index" json:"status"`
	StartedAt          time.Time        `json:"startedAt"`
	CompletedAt        *time.Time       `json:"completedAt"`
	EmpathyScore       int              `gorm:"default:0" json:"empathy"`
	ResolutionScore    int              `gorm:"default:0" json:"resolution"`
	CommunicationScore int              `gorm:"default:0" json:"communication"`
	TotalScore         int              `gorm:"default:0" json:"total"`
	Steps              []SimulationStep `gorm:"foreignKey:SessionID" json:"steps,omitempty"`
}

func (SimulationSession) TableName() string {
	return "simulation_sessions"
}

type SimulationStep struct {
	BaseModel
	SessionID uint                               `gorm:"uniqueIndex:idx_session_step,priority:1;not null" json:"sessionId"`
	StepOrder int                                `gorm:"uniqueIndex:idx_session_step,priority:2" json:"stepOrder"`
	Speaker   Speaker                            `gorm:"size:16;not null" json:"speaker"`
	Content   string                             `gorm:"type:text" json:"content"`
	Score     datatypes.JSONType[MessageScore] `json:"score"`
}

func (SimulationStep) TableName() string {
	return "simulation_steps"
}
