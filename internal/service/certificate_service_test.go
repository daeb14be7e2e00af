package service

import (
	"context"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/util"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCertificateNumber(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a := NewCertificateNumber(now)
	b := NewCertificateNumber(now)
	assert.Regexp(t, `^ST-2025-[0-9A-F]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func TestCertificate_IssueIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "anna")
	course, _ := env.createCourse(t, 1, 1)

	first, err := env.certificates.Issue(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.DocumentURL, "/uploads/certificates/"))

	again, err := env.certificates.Issue(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.Number, again.Number)

	list, err := env.certificates.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	found, err := env.certificates.GetByNumber(ctx, first.Number)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)
	require.NotNil(t, found.Course)
	assert.Equal(t, course.Title, found.Course.Title)

	_, err = env.certificates.GetByNumber(ctx, "ST-1999-DEADBEEF")
	assert.ErrorIs(t, err, util.ErrNotFound)
	_, err = env.certificates.GetByNumber(ctx, " ")
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestCertificate_RenderEscapesMarkdown(t *testing.T) {
	env := newTestEnv(t)
	cert := &model.Certificate{Number: "ST-2025-ABCDEF12", IssuedAt: time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)}
	user := &model.User{Name: "<script>*Mallory*</script>"}
	course := &model.Course{Title: "Deeskalation", Version: 2, EstimatedHours: 3}

	doc, err := env.certificates.RenderCertificate(cert, user, course)
	require.NoError(t, err)
	html := string(doc)
	assert.Contains(t, html, "<h2>Deeskalation</h2>")
	assert.Contains(t, html, "2025-05-04")
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<em>Mallory</em>")
}
