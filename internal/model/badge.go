package model

import "time"

type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

func (r BadgeRarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// swagger:model Badge
type Badge struct {
	BaseModel
	Code           string      `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name           string      `gorm:"size:100;not null" json:"name"`
	Description    string      `gorm:"type:text" json:"description"`
	Icon           string      `gorm:"size:100" json:"icon"`
	PointsRequired int         `gorm:"default:0;index" json:"pointsRequired"`
	Rarity         BadgeRarity `gorm:"size:20;default:'common'" json:"rarity"`
}

func (Badge) TableName() string {
	return "badges"
}

type BadgeAward struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	BadgeID   uint      `gorm:"primaryKey;autoIncrement:false" json:"badgeId"`
	AwardedAt time.Time `json:"awardedAt"`
	Badge     *Badge    `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
}

func (BadgeAward) TableName() string {
	return "badge_awards"
}
