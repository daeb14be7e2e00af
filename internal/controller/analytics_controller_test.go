package controller

import (
	"net/http"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/service"
	"satistrain_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSAT_RecordAndSummarize(t *testing.T) {
	s := newTestServer(t)
	_, learner := s.createUser(t, "agent", model.Learner)
	_, trainer := s.createUser(t, "lead", model.Trainer)

	for _, score := range []int{5, 4, 4} {
		code, env := s.do(t, http.MethodPost, "/api/csat", learner, map[string]interface{}{"score": score, "category": "billing"})
		require.Equal(t, http.StatusCreated, code, env.Message)
	}

	code, env := s.do(t, http.MethodPost, "/api/csat", learner, map[string]interface{}{"score": 6, "category": "billing"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.KindValidation, env.Error)

	code, _ = s.do(t, http.MethodGet, "/api/admin/csat/summary", learner, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodGet, "/api/admin/csat/summary", trainer, nil)
	require.Equal(t, http.StatusOK, code)
	summary := decode[service.CSATSummary](t, env.Data)
	assert.Equal(t, int64(3), summary.Count)
	assert.Equal(t, 4.3, summary.Average)
	assert.Equal(t, int64(2), summary.Distribution[4])
}

func TestDashboardAndStats(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, "agent", model.Learner)

	code, _ := s.do(t, http.MethodGet, "/api/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodGet, "/api/gamification/stats", token, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[service.UserStats](t, env.Data)
	assert.Equal(t, 0, stats.Level)
	assert.Equal(t, util.PointsPerLevel, stats.NextLevelAt)

	code, _ = s.do(t, http.MethodGet, "/api/leaderboard?limit=5", "", nil)
	assert.Equal(t, http.StatusOK, code)
}
