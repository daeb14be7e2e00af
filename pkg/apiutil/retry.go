package apiutil

import (
	"context"
	"errors"
	"math"
	"satistrain_backend/internal/util"
	"strings"
	"time"
)

// RetryOptions 指数退避重试参数，零值字段使用默认值
type RetryOptions struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
	ShouldRetry       func(err error) bool
	// OnRetry 在每次等待前调用，attempt 为刚失败的次数（从 1 开始）
	OnRetry func(attempt int, delay time.Duration, err error)
}

const (
	DefaultMaxAttempts       = 3
	DefaultInitialDelay      = time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelay          = 10 * time.Second
)

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = IsRetryableError
	}
	return o
}

// BackoffDelay 第 attempt 次失败后的等待时间: initial * multiplier^(attempt-1)，不超过 MaxDelay
func BackoffDelay(opts RetryOptions, attempt int) time.Duration {
	opts = opts.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	d := float64(opts.InitialDelay) * math.Pow(opts.BackoffMultiplier, float64(attempt-1))
	if d > float64(opts.MaxDelay) || math.IsInf(d, 0) {
		return opts.MaxDelay
	}
	return time.Duration(d)
}

// WithRetry 执行 fn，失败且 ShouldRetry 返回 true 时按指数退避重试
func WithRetry[T any](ctx context.Context, opts RetryOptions, fn func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == opts.MaxAttempts || !opts.ShouldRetry(err) {
			break
		}

		delay := BackoffDelay(opts, attempt)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// Retry 无返回值版本
func Retry(ctx context.Context, opts RetryOptions, fn func(ctx context.Context) error) error {
	_, err := WithRetry(ctx, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

var retryablePatterns = []string{
	"network", "timeout", "fetch", "connection refused", "connection reset",
	"500", "502", "503", "504", "internal server error", "bad gateway",
	"service unavailable", "gateway timeout",
}

// IsRetryableError 网络、超时和 5xx 错误可以重试
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, util.ErrNetwork) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
