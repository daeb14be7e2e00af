package service

import (
	"context"
	"encoding/json"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/apiutil"
	"satistrain_backend/pkg/logger"
	"satistrain_backend/pkg/monitoring"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey = "satistrain:leaderboard:"
	leaderboardCacheTTL = 60 * time.Second
	maxLeaderboardLimit = 100
)

type GamificationService struct {
	UserRepo  *repository.UserRepository
	BadgeRepo *repository.BadgeRepository
	Redis     *redis.Client
}

func NewGamificationService(userRepo *repository.UserRepository, badgeRepo *repository.BadgeRepository, rdb *redis.Client) *GamificationService {
	return &GamificationService{
		UserRepo:  userRepo,
		BadgeRepo: badgeRepo,
		Redis:     rdb,
	}
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"userId"`
	Name       string `json:"name"`
	Points     int    `json:"points"`
	Level      int    `json:"level"`
	BadgeCount int64  `json:"badgeCount"`
}

type UserStats struct {
	Points      int                `json:"points"`
	Level       int                `json:"level"`
	NextLevelAt int                `json:"nextLevelAt"`
	Rank        int64              `json:"rank"`
	Badges      []model.BadgeAward `json:"badges"`
}

// PointsResult AddPoints 的结果
type PointsResult struct {
	Points    int           `json:"points"`
	Level     int           `json:"level"`
	NewBadges []model.Badge `json:"newBadges,omitempty"`
}

type CreateBadgeRequest struct {
	Code           string            `json:"code" binding:"required,max=64"`
	Name           string            `json:"name" binding:"required,max=100"`
	Description    string            `json:"description"`
	Icon           string            `json:"icon" binding:"max=100"`
	PointsRequired int               `json:"pointsRequired" binding:"min=0"`
	Rarity         model.BadgeRarity `json:"rarity" binding:"required"`
}

// CalculateLevel 每 200 积分升一级
func CalculateLevel(points int) (int, int) {
	if points < 0 {
		points = 0
	}
	level := points / util.PointsPerLevel
	return level, (level + 1) * util.PointsPerLevel
}

func (s *GamificationService) ListBadges(ctx context.Context) ([]model.Badge, error) {
	badges, err := s.BadgeRepo.List(ctx)
	return badges, util.ClassifyError(err)
}

func (s *GamificationService) CreateBadge(ctx context.Context, req CreateBadgeRequest) (*model.Badge, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" || strings.TrimSpace(req.Name) == "" {
		return nil, util.NewValidationError("badge code and name are required")
	}
	if !req.Rarity.Valid() {
		return nil, util.NewValidationError("invalid rarity %q", req.Rarity)
	}
	if req.PointsRequired < 0 {
		return nil, util.NewValidationError("pointsRequired must not be negative")
	}

	exists, err := s.BadgeRepo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	if exists {
		return nil, util.NewValidationError("badge %q already exists", code)
	}

	badge := &model.Badge{
		Code:           code,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Icon:           req.Icon,
		PointsRequired: req.PointsRequired,
		Rarity:         req.Rarity,
	}
	if err := s.BadgeRepo.Create(ctx, badge); err != nil {
		return nil, util.ClassifyError(err)
	}
	return badge, nil
}

func (s *GamificationService) GetUserBadges(ctx context.Context, userID uint) ([]model.BadgeAward, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	awards, err := s.BadgeRepo.AwardsByUser(ctx, userID)
	return awards, util.ClassifyError(err)
}

// AwardBadge 手动授予徽章，重复授予不报错，返回是否为新授予
func (s *GamificationService) AwardBadge(ctx context.Context, userID, badgeID uint) (bool, error) {
	if userID == 0 || badgeID == 0 {
		return false, util.NewValidationError("userId and badgeId are required")
	}
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		return false, util.ClassifyError(err)
	}
	badge, err := s.BadgeRepo.FindByID(ctx, badgeID)
	if err != nil {
		return false, util.ClassifyError(err)
	}

	created, err := s.BadgeRepo.Award(ctx, &model.BadgeAward{
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now(),
	})
	if err != nil {
		return false, util.ClassifyError(err)
	}
	if created {
		monitoring.BadgesAwarded.WithLabelValues(string(badge.Rarity)).Inc()
		s.invalidateLeaderboard(ctx)
	}
	return created, nil
}

// AddPoints 增加积分并检查是否达到新的徽章门槛
func (s *GamificationService) AddPoints(ctx context.Context, userID uint, delta int) (*PointsResult, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	if delta < 0 {
		return nil, util.NewValidationError("points delta must not be negative")
	}

	points, err := s.UserRepo.AddPoints(ctx, userID, delta)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	newBadges, err := s.awardEligible(ctx, userID, points)
	if err != nil {
		return nil, err
	}
	s.invalidateLeaderboard(ctx)

	level, _ := CalculateLevel(points)
	return &PointsResult{Points: points, Level: level, NewBadges: newBadges}, nil
}

// CheckAndAwardBadges 按当前积分补发徽章
func (s *GamificationService) CheckAndAwardBadges(ctx context.Context, userID uint) ([]model.Badge, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	awarded, err := s.awardEligible(ctx, userID, user.Points)
	if err != nil {
		return nil, err
	}
	if len(awarded) > 0 {
		s.invalidateLeaderboard(ctx)
	}
	return awarded, nil
}

// ReevaluateActiveUsers 为 since 之后活跃过的用户补发徽章，返回新发放数量
func (s *GamificationService) ReevaluateActiveUsers(ctx context.Context, since time.Time, concurrency int) (int, error) {
	ids, err := s.UserRepo.FindIDsActiveSince(ctx, since)
	if err != nil {
		return 0, util.ClassifyError(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	counts, err := apiutil.BatchRequests(ctx, ids, concurrency, func(ctx context.Context, id uint) (int, error) {
		awarded, err := s.CheckAndAwardBadges(ctx, id)
		return len(awarded), err
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (s *GamificationService) awardEligible(ctx context.Context, userID uint, points int) ([]model.Badge, error) {
	eligible, err := s.BadgeRepo.FindEligible(ctx, userID, points)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	var awarded []model.Badge
	now := time.Now()
	for _, badge := range eligible {
		created, err := s.BadgeRepo.Award(ctx, &model.BadgeAward{UserID: userID, BadgeID: badge.ID, AwardedAt: now})
		if err != nil {
			return awarded, util.ClassifyError(err)
		}
		if created {
			awarded = append(awarded, badge)
			monitoring.BadgesAwarded.WithLabelValues(string(badge.Rarity)).Inc()
			logger.Log.Info("Badge awarded",
				zap.Uint("userId", userID),
				zap.String("badge", badge.Code),
			)
		}
	}
	return awarded, nil
}

func (s *GamificationService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	if cached, ok := s.cachedLeaderboard(ctx, limit); ok {
		return cached, nil
	}

	users, err := s.UserRepo.FindTopByPoints(ctx, limit)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	badgeCounts, err := s.BadgeRepo.CountByUsers(ctx, ids)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	// 并列积分同名次（1,1,3），与 GetUserStats 的 count(points > mine)+1 一致
	entries := make([]LeaderboardEntry, len(users))
	rank := 0
	for i, u := range users {
		if i == 0 || u.Points != users[i-1].Points {
			rank = i + 1
		}
		level, _ := CalculateLevel(u.Points)
		entries[i] = LeaderboardEntry{
			Rank:       rank,
			UserID:     u.ID,
			Name:       u.Name,
			Points:     u.Points,
			Level:      level,
			BadgeCount: badgeCounts[u.ID],
		}
	}

	s.cacheLeaderboard(ctx, limit, entries)
	return entries, nil
}

func (s *GamificationService) GetUserStats(ctx context.Context, userID uint) (*UserStats, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	awards, err := s.BadgeRepo.AwardsByUser(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	ahead, err := s.UserRepo.CountWithMorePoints(ctx, user.Points)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	level, next := CalculateLevel(user.Points)
	return &UserStats{
		Points:      user.Points,
		Level:       level,
		NextLevelAt: next,
		Rank:        ahead + 1,
		Badges:      awards,
	}, nil
}

func leaderboardKey(limit int) string {
	return leaderboardCacheKey + strconv.Itoa(limit)
}

func (s *GamificationService) cachedLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, bool) {
	if s.Redis == nil {
		return nil, false
	}
	val, err := s.Redis.Get(ctx, leaderboardKey(limit)).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		logger.Log.Warn("Leaderboard cache read failed", zap.Error(err))
		return nil, false
	}

	var entries []LeaderboardEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *GamificationService) cacheLeaderboard(ctx context.Context, limit int, entries []LeaderboardEntry) {
	if s.Redis == nil {
		return
	}
	data, _ := json.Marshal(entries)
	if err := s.Redis.Set(ctx, leaderboardKey(limit), data, leaderboardCacheTTL).Err(); err != nil {
		logger.Log.Warn("Leaderboard cache write failed", zap.Error(err))
	}
}

func (s *GamificationService) invalidateLeaderboard(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	iter := s.Redis.Scan(ctx, 0, leaderboardCacheKey+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Log.Warn("Leaderboard cache scan failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		s.Redis.Del(ctx, keys...)
	}
}
