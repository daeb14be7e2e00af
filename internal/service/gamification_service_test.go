package service

import (
	"context"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		points    int
		wantLevel int
		wantNext  int
	}{
		{0, 0, 200},
		{199, 0, 200},
		{200, 1, 400},
		{1050, 5, 1200},
		{-20, 0, 200},
	}
	for _, tt := range tests {
		level, next := CalculateLevel(tt.points)
		assert.Equal(t, tt.wantLevel, level, "points=%d", tt.points)
		assert.Equal(t, tt.wantNext, next, "points=%d", tt.points)
	}
}

func TestGamification_AddPointsAwardsBadgesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "anna")
	env.createBadge(t, "first", 10, model.RarityCommon)
	env.createBadge(t, "hundred", 100, model.RarityRare)

	res, err := env.gamification.AddPoints(ctx, user.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, res.Points)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, "first", res.NewBadges[0].Code)

	res, err = env.gamification.AddPoints(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 115, res.Points)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, "hundred", res.NewBadges[0].Code)

	awarded, err := env.gamification.CheckAndAwardBadges(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	badges, err := env.gamification.GetUserBadges(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, badges, 2)
}

func TestGamification_AddPointsValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.gamification.AddPoints(ctx, 0, 5)
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = env.gamification.AddPoints(ctx, 1, -5)
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = env.gamification.AddPoints(ctx, 999, 5)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestGamification_AwardBadgeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ben")
	badge := env.createBadge(t, "special", 9999, model.RarityEpic)

	created, err := env.gamification.AwardBadge(ctx, user.ID, badge.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.gamification.AwardBadge(ctx, user.ID, badge.ID)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = env.gamification.AwardBadge(ctx, user.ID, 12345)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestGamification_CreateBadge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	badge, err := env.gamification.CreateBadge(ctx, CreateBadgeRequest{Code: "mentor", Name: "Mentor", PointsRequired: 50, Rarity: model.RarityRare})
	require.NoError(t, err)
	assert.NotZero(t, badge.ID)

	tests := []struct {
		name string
		req  CreateBadgeRequest
	}{
		{"duplicate code", CreateBadgeRequest{Code: "mentor", Name: "Again", Rarity: model.RarityRare}},
		{"unknown rarity", CreateBadgeRequest{Code: "x", Name: "X", Rarity: "mythic"}},
		{"negative points", CreateBadgeRequest{Code: "y", Name: "Y", Rarity: model.RarityCommon, PointsRequired: -1}},
		{"missing name", CreateBadgeRequest{Code: "z", Rarity: model.RarityCommon}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.gamification.CreateBadge(ctx, tt.req)
			assert.ErrorIs(t, err, util.ErrValidation)
		})
	}
}

func TestGamification_LeaderboardAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createBadge(t, "first", 10, model.RarityCommon)

	anna := env.createUser(t, "anna")
	ben := env.createUser(t, "ben")
	cara := env.createUser(t, "cara")
	_, err := env.gamification.AddPoints(ctx, anna.ID, 250)
	require.NoError(t, err)
	_, err = env.gamification.AddPoints(ctx, ben.ID, 40)
	require.NoError(t, err)

	board, err := env.gamification.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, anna.ID, board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 1, board[0].Level)
	assert.Equal(t, int64(1), board[0].BadgeCount)
	assert.Equal(t, ben.ID, board[1].UserID)

	stats, err := env.gamification.GetUserStats(ctx, cara.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Rank)
	assert.Equal(t, 0, stats.Level)
	assert.Equal(t, 200, stats.NextLevelAt)
	assert.Empty(t, stats.Badges)
}

func TestGamification_TiedUsersShareRank(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.createUser(t, "anna")
	ben := env.createUser(t, "ben")
	cara := env.createUser(t, "cara")
	for _, u := range []*model.User{anna, ben} {
		_, err := env.gamification.AddPoints(ctx, u.ID, 80)
		require.NoError(t, err)
	}
	_, err := env.gamification.AddPoints(ctx, cara.ID, 30)
	require.NoError(t, err)

	board, err := env.gamification.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)

	ranks := map[uint]int{}
	for _, e := range board {
		ranks[e.UserID] = e.Rank
	}
	assert.Equal(t, map[uint]int{anna.ID: 1, ben.ID: 1, cara.ID: 3}, ranks)

	// 排行榜与个人统计的名次一致
	for _, u := range []*model.User{anna, ben, cara} {
		stats, err := env.gamification.GetUserStats(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(ranks[u.ID]), stats.Rank, u.Name)
	}
}

func TestGamification_ReevaluateActiveUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []uint
	for _, name := range []string{"a", "b", "c"} {
		u := env.createUser(t, name)
		require.NoError(t, env.users.UpdateFields(ctx, u.ID, map[string]interface{}{"points": 120}))
		ids = append(ids, u.ID)
	}
	env.createBadge(t, "hundred", 100, model.RarityCommon)

	n, err := env.gamification.ReevaluateActiveUsers(ctx, time.Now().Add(-time.Hour), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = env.gamification.ReevaluateActiveUsers(ctx, time.Now().Add(-time.Hour), 4)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, id := range ids {
		count, err := env.badges.CountByUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	}
}
