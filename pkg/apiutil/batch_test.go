package apiutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRequests_PreservesOrderAndLimitsConcurrency(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var running, peak int32

	got, err := BatchRequests(context.Background(), items, 3, func(ctx context.Context, n int) (int, error) {
		cur := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return n * n, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25, 36, 49, 64}, got)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestBatchRequests_ReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")

	got, err := BatchRequests(context.Background(), []string{"a", "b", "c"}, 1, func(ctx context.Context, s string) (string, error) {
		if s == "b" {
			return "", boom
		}
		return s, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestBatchRequests_Empty(t *testing.T) {
	got, err := BatchRequests(context.Background(), []int{}, 4, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}
