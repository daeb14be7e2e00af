package service

import (
	"context"
	"math"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/simulator"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"
	"satistrain_backend/pkg/monitoring"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type SimulationService struct {
	SimRepo      *repository.SimulationRepository
	Gamification *GamificationService

	mu  sync.RWMutex
	cfg config.SimulatorConfig
}

func NewSimulationService(simRepo *repository.SimulationRepository, gamification *GamificationService, cfg config.SimulatorConfig) *SimulationService {
	return &SimulationService{
		SimRepo:      simRepo,
		Gamification: gamification,
		cfg:          cfg,
	}
}

// ApplyConfig 配置热更新时替换模拟器参数，只影响之后的请求
func (s *SimulationService) ApplyConfig(cfg config.SimulatorConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *SimulationService) settings() config.SimulatorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

type StartSimulationRequest struct {
	Scenario    string `json:"scenario" binding:"required"`
	Personality string `json:"personality"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Turn 一轮对话：坐席消息及评分、客户回复
type Turn struct {
	Agent    model.SimulationStep `json:"agent"`
	Customer model.SimulationStep `json:"customer"`
	Score    model.MessageScore   `json:"score"`
	Feedback []string             `json:"feedback"`
}

// SessionResult 结束会话后的汇总
type SessionResult struct {
	Session       *model.SimulationSession `json:"session"`
	PointsAwarded int                      `json:"pointsAwarded"`
	NewBadges     []model.Badge            `json:"newBadges,omitempty"`
}

func (s *SimulationService) ListScenarios() []simulator.Scenario {
	return simulator.Scenarios()
}

// SessionDeadline 会话的时间上限
func (s *SimulationService) SessionDeadline(session *model.SimulationSession) time.Time {
	return session.StartedAt.Add(time.Duration(s.settings().SessionMinutes) * time.Minute)
}

func (s *SimulationService) StartSession(ctx context.Context, userID uint, scenarioID, personality string) (*model.SimulationSession, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	scenario, ok := simulator.FindScenario(strings.TrimSpace(scenarioID))
	if !ok {
		return nil, util.NewValidationError("unknown scenario %q", scenarioID)
	}
	if personality == "" {
		personality = scenario.DefaultPersonality
	}
	if !simulator.ValidPersonality(personality) {
		return nil, util.NewValidationError("unknown personality %q", personality)
	}

	session := &model.SimulationSession{
		UserID:      userID,
		Scenario:    scenario.ID,
		Personality: personality,
		Status:      model.SimulationActive,
		StartedAt:   time.Now(),
		Steps: []model.SimulationStep{{
			StepOrder: 1,
			Speaker:   model.SpeakerCustomer,
			Content:   scenario.Opening,
		}},
	}
	if err := s.SimRepo.CreateSession(ctx, session); err != nil {
		return nil, util.ClassifyError(err)
	}

	logger.Log.Info("Simulation started",
		zap.Uint("sessionId", session.ID),
		zap.Uint("userId", userID),
		zap.String("scenario", scenario.ID),
		zap.String("personality", personality),
	)
	return session, nil
}

// ownedSession 加载会话并校验归属
func (s *SimulationService) ownedSession(ctx context.Context, userID, sessionID uint) (*model.SimulationSession, error) {
	if userID == 0 || sessionID == 0 {
		return nil, util.NewValidationError("userId and sessionId are required")
	}
	session, err := s.SimRepo.FindSession(ctx, sessionID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if session.UserID != userID {
		return nil, util.NewPermissionError("simulation belongs to another user")
	}
	return session, nil
}

func (s *SimulationService) SendMessage(ctx context.Context, userID, sessionID uint, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return nil, util.NewValidationError("message must not be empty")
	}
	if n > simulator.MaxMessageLength {
		return nil, util.NewValidationError("message exceeds %d characters", simulator.MaxMessageLength)
	}

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SimulationActive {
		return nil, util.NewValidationError("simulation is %s", session.Status)
	}
	if time.Now().After(s.SessionDeadline(session)) {
		return nil, util.NewValidationError("simulation time budget exhausted")
	}

	var turn *Turn
	// 计数与写入在同一事务中，会话行加锁；并发轮次输掉唯一索引竞争时归类为 ValidationError
	err = s.SimRepo.AppendTurn(ctx, sessionID, func(locked *model.SimulationSession, count int64) ([]*model.SimulationStep, error) {
		if locked.Status != model.SimulationActive {
			return nil, util.NewValidationError("simulation is %s", locked.Status)
		}
		if limit := s.settings().MaxHistory; int(count)+2 > limit {
			return nil, util.NewValidationError("conversation history limit of %d steps reached", limit)
		}

		score := simulator.CalculateMessageScore(text, locked.Scenario, locked.Personality)
		turnNo := int(count)/2 + 1
		reply := simulator.CustomerReply(locked.Scenario, locked.Personality, score, turnNo)

		turn = &Turn{
			Agent: model.SimulationStep{
				SessionID: sessionID,
				StepOrder: int(count) + 1,
				Speaker:   model.SpeakerAgent,
				Content:   text,
				Score:     datatypes.NewJSONType(score),
			},
			Customer: model.SimulationStep{
				SessionID: sessionID,
				StepOrder: int(count) + 2,
				Speaker:   model.SpeakerCustomer,
				Content:   reply,
			},
			Score:    score,
			Feedback: simulator.Feedback(score),
		}
		return []*model.SimulationStep{&turn.Agent, &turn.Customer}, nil
	})
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	monitoring.MessagesScored.WithLabelValues(session.Scenario).Inc()
	return turn, nil
}

// AverageScores 对坐席消息评分求平均
func AverageScores(steps []model.SimulationStep) model.MessageScore {
	var sum [5]int
	n := 0
	for _, step := range steps {
		if step.Speaker != model.SpeakerAgent {
			continue
		}
		sc := step.Score.Data()
		sum[0] += sc.Empathy
		sum[1] += sc.Clarity
		sum[2] += sc.Helpfulness
		sum[3] += sc.Professionalism
		sum[4] += sc.Overall
		n++
	}
	if n == 0 {
		return model.MessageScore{}
	}
	avg := func(v int) int { return int(math.Round(float64(v) / float64(n))) }
	return model.MessageScore{
		Empathy:         avg(sum[0]),
		Clarity:         avg(sum[1]),
		Helpfulness:     avg(sum[2]),
		Professionalism: avg(sum[3]),
		Overall:         avg(sum[4]),
	}
}

// CompleteSession 结束会话并汇总评分，按总分的十分之一发放积分
func (s *SimulationService) CompleteSession(ctx context.Context, userID, sessionID uint) (*SessionResult, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SimulationActive {
		return nil, util.NewValidationError("simulation is %s", session.Status)
	}

	steps, err := s.SimRepo.AgentSteps(ctx, sessionID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if len(steps) == 0 {
		return nil, util.NewValidationError("simulation has no messages to evaluate")
	}

	avg := AverageScores(steps)
	now := time.Now()
	session.Status = model.SimulationCompleted
	session.CompletedAt = &now
	session.EmpathyScore = avg.Empathy
	session.ResolutionScore = avg.Helpfulness
	session.CommunicationScore = avg.Clarity
	session.TotalScore = avg.Overall
	// 并发结束同一会话时只有一次调用生效，积分只发放一次
	finished, err := s.SimRepo.FinishSession(ctx, session)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if !finished {
		return nil, util.NewValidationError("simulation is no longer active")
	}
	monitoring.SimulationScore.WithLabelValues(session.Scenario).Observe(float64(session.TotalScore))

	result := &SessionResult{Session: session, PointsAwarded: session.TotalScore / 10}
	if result.PointsAwarded > 0 {
		pts, err := s.Gamification.AddPoints(ctx, userID, result.PointsAwarded)
		if err != nil {
			return nil, err
		}
		result.NewBadges = pts.NewBadges
	}

	logger.Log.Info("Simulation completed",
		zap.Uint("sessionId", sessionID),
		zap.Int("total", session.TotalScore),
		zap.Int("messages", len(steps)),
	)
	return result, nil
}

func (s *SimulationService) AbandonSession(ctx context.Context, userID, sessionID uint) (*model.SimulationSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SimulationActive {
		return nil, util.NewValidationError("simulation is %s", session.Status)
	}

	now := time.Now()
	session.Status = model.SimulationAbandoned
	session.CompletedAt = &now
	finished, err := s.SimRepo.FinishSession(ctx, session)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if !finished {
		return nil, util.NewValidationError("simulation is no longer active")
	}
	return session, nil
}

func (s *SimulationService) GetSession(ctx context.Context, userID, sessionID uint) (*model.SimulationSession, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	session, err := s.SimRepo.FindSessionWithSteps(ctx, sessionID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	return session, nil
}

func (s *SimulationService) ListSessions(ctx context.Context, userID uint, limit int) ([]model.SimulationSession, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.SimRepo.ListByUser(ctx, userID, limit)
	return list, util.ClassifyError(err)
}
