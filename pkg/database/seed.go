package database

import (
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
)

var defaultBadges = []model.Badge{
	{Code: "first_steps", Name: "Erste Schritte", Description: "Die ersten Punkte gesammelt", Icon: "footprints", PointsRequired: 10, Rarity: model.RarityCommon},
	{Code: "listener", Name: "Gute Zuhörerin", Description: "100 Punkte erreicht", Icon: "ear", PointsRequired: 100, Rarity: model.RarityCommon},
	{Code: "problem_solver", Name: "Problemlöser", Description: "500 Punkte erreicht", Icon: "puzzle", PointsRequired: 500, Rarity: model.RarityRare},
	{Code: "service_star", Name: "Service-Star", Description: "1500 Punkte erreicht", Icon: "star", PointsRequired: 1500, Rarity: model.RarityEpic},
	{Code: "satisfaction_legend", Name: "Zufriedenheitslegende", Description: "5000 Punkte erreicht", Icon: "crown", PointsRequired: 5000, Rarity: model.RarityLegendary},
}

func defaultCourse() model.Course {
	return model.Course{
		Title:          "Grundlagen der Kundenkommunikation",
		Description:    "Aktives Zuhören, Empathie und lösungsorientierte Gesprächsführung.",
		Version:        1,
		IsActive:       true,
		Difficulty:     1,
		EstimatedHours: 2,
		Modules: []model.CourseModule{
			{
				Title:     "Aktives Zuhören",
				SortOrder: 1,
				Lessons: []model.Lesson{
					{Title: "Warum Zuhören wirkt", ContentType: model.ContentVideo, EstimatedMinutes: 12, SortOrder: 1},
					{Title: "Techniken des Spiegelns", ContentType: model.ContentText, EstimatedMinutes: 8, SortOrder: 2},
				},
			},
			{
				Title:     "Schwierige Gespräche",
				SortOrder: 2,
				Lessons: []model.Lesson{
					{Title: "Deeskalation am Telefon", ContentType: model.ContentAudio, EstimatedMinutes: 15, SortOrder: 1},
				},
			},
		},
	}
}

// Seed 表为空时写入默认徽章和入门课程
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Badge{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		badges := make([]model.Badge, len(defaultBadges))
		copy(badges, defaultBadges)
		if err := db.Create(&badges).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		course := defaultCourse()
		if err := db.Create(&course).Error; err != nil {
			return err
		}
	}

	return nil
}
