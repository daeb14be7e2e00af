package service

import (
	"context"
	"satistrain_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalytics_RecordCSATRejectsOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "anna")

	for _, score := range []int{-1, 0, 6, 10} {
		_, err := env.analytics.RecordCSAT(ctx, user.ID, score, "billing", "")
		assert.ErrorIs(t, err, util.ErrValidation, "score=%d", score)
	}

	_, err := env.analytics.RecordCSAT(ctx, user.ID, 4, "  ", "")
	assert.ErrorIs(t, err, util.ErrValidation)

	for score := 1; score <= 5; score++ {
		m, err := env.analytics.RecordCSAT(ctx, user.ID, score, "billing", "ok")
		require.NoError(t, err)
		assert.Equal(t, score, m.Score)
	}

	list, err := env.analytics.ListCSAT(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func TestAnalytics_CSATSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	anna := env.createUser(t, "anna")
	ben := env.createUser(t, "ben")

	samples := []struct {
		user     uint
		score    int
		category string
	}{
		{anna.ID, 5, "billing"},
		{anna.ID, 3, "billing"},
		{anna.ID, 4, "technical"},
		{ben.ID, 1, "technical"},
	}
	for _, s := range samples {
		_, err := env.analytics.RecordCSAT(ctx, s.user, s.score, s.category, "")
		require.NoError(t, err)
	}

	mine, err := env.analytics.GetCSATSummary(ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Count)
	assert.Equal(t, 4.0, mine.Average)
	assert.Equal(t, int64(0), mine.Distribution[1])
	assert.Equal(t, int64(1), mine.Distribution[5])
	assert.Equal(t, 4.0, mine.Categories["billing"])

	all, err := env.analytics.GetCSATSummary(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Count)
	assert.Equal(t, 3.3, all.Average)
	assert.Equal(t, 2.5, all.Categories["technical"])
}

func TestAnalytics_Dashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "anna")
	course, lessons := env.createCourse(t, 1, 2)

	_, err := env.courses.Enroll(ctx, user.ID, course.ID)
	require.NoError(t, err)
	_, err = env.courses.CompleteLesson(ctx, user.ID, lessons[0].ID, 90, 120)
	require.NoError(t, err)

	session, err := env.simulations.StartSession(ctx, user.ID, "billing_complaint", "")
	require.NoError(t, err)
	_, err = env.simulations.SendMessage(ctx, user.ID, session.ID, goodReply)
	require.NoError(t, err)
	done, err := env.simulations.CompleteSession(ctx, user.ID, session.ID)
	require.NoError(t, err)

	_, err = env.analytics.RecordCSAT(ctx, user.ID, 5, "billing", "")
	require.NoError(t, err)

	d, err := env.analytics.GetDashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.EnrolledCourses)
	assert.Equal(t, int64(1), d.InProgressCourses)
	assert.Equal(t, int64(0), d.CompletedCourses)
	assert.Equal(t, int64(1), d.LessonsCompleted)
	assert.Equal(t, int64(120), d.LearningTime)
	assert.Equal(t, 90.0, d.AverageScore)
	assert.Equal(t, int64(1), d.Simulations)
	assert.Equal(t, float64(done.Session.TotalScore), d.SimulationAverage)
	assert.Equal(t, LessonPoints(90)+done.PointsAwarded, d.Points)
	assert.Equal(t, 5.0, d.CSATAverage)

	_, err = env.analytics.GetDashboard(ctx, 0)
	assert.ErrorIs(t, err, util.ErrValidation)
}
