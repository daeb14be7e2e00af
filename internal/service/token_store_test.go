package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "abc", 7, time.Hour))

	id, ok, err := store.Consume(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)

	_, ok, err = store.Consume(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok, "tokens are single use")

	require.NoError(t, store.Save(ctx, "late", 8, time.Minute))
	now = now.Add(2 * time.Minute)
	_, ok, err = store.Consume(ctx, "late")
	require.NoError(t, err)
	assert.False(t, ok, "expired token")
}

func TestPasswordResetMail(t *testing.T) {
	subject, body := passwordResetMail("https://app.example.com/reset?lang=de", "tok-1")
	assert.NotEmpty(t, subject)
	assert.Contains(t, body, "https://app.example.com/reset?lang=de&token=tok-1")

	_, body = passwordResetMail("", "tok-2")
	assert.Contains(t, body, "tok-2")
}
