package repository

import (
	"context"
	"satistrain_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SimulationRepository struct {
	DB *gorm.DB
}

func NewSimulationRepository(db *gorm.DB) *SimulationRepository {
	return &SimulationRepository{DB: db}
}

// SimulationTotals 已完成模拟的汇总
type SimulationTotals struct {
	Count    int64
	AvgTotal float64
}

func (r *SimulationRepository) CreateSession(ctx context.Context, s *model.SimulationSession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SimulationRepository) UpdateSession(ctx context.Context, s *model.SimulationSession) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

// FinishSession 仅当会话仍为 active 时写入结束状态和评分，返回是否由本次调用结束
func (r *SimulationRepository) FinishSession(ctx context.Context, s *model.SimulationSession) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.SimulationSession{}).
		Where("id = ? AND status = ?", s.ID, model.SimulationActive).
		Updates(map[string]interface{}{
			"status":              s.Status,
			"completed_at":        s.CompletedAt,
			"empathy_score":       s.EmpathyScore,
			"resolution_score":    s.ResolutionScore,
			"communication_score": s.CommunicationScore,
			"total_score":         s.TotalScore,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SimulationRepository) FindSession(ctx context.Context, id uint) (*model.SimulationSession, error) {
	var s model.SimulationSession
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SimulationRepository) FindSessionWithSteps(ctx context.Context, id uint) (*model.SimulationSession, error) {
	var s model.SimulationSession
	err := r.DB.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SimulationRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.SimulationSession, error) {
	var list []model.SimulationSession
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *SimulationRepository) CountSteps(ctx context.Context, sessionID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.SimulationStep{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

// AppendTurn 锁定会话行后计数并写入本轮对话，同一会话的并发轮次串行执行。
// build 在锁内拿到会话和已有步数，返回要写入的步骤；返回错误则回滚
func (r *SimulationRepository) AppendTurn(ctx context.Context, sessionID uint, build func(session *model.SimulationSession, count int64) ([]*model.SimulationStep, error)) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.SimulationSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, sessionID).Error; err != nil {
			return err
		}

		count, err := (&SimulationRepository{DB: tx}).CountSteps(ctx, sessionID)
		if err != nil {
			return err
		}

		steps, err := build(&session, count)
		if err != nil {
			return err
		}
		for _, step := range steps {
			if err := tx.Create(step).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SimulationRepository) AgentSteps(ctx context.Context, sessionID uint) ([]model.SimulationStep, error) {
	var steps []model.SimulationStep
	err := r.DB.WithContext(ctx).
		Where("session_id = ? AND speaker = ?", sessionID, model.SpeakerAgent).
		Order("step_order ASC").
		Find(&steps).Error
	return steps, err
}

func (r *SimulationRepository) CompletedTotals(ctx context.Context, userID uint) (*SimulationTotals, error) {
	var totals SimulationTotals
	err := r.DB.WithContext(ctx).Model(&model.SimulationSession{}).
		Select("COUNT(*) AS count, COALESCE(AVG(total_score), 0) AS avg_total").
		Where("user_id = ? AND status = ?", userID, model.SimulationCompleted).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
