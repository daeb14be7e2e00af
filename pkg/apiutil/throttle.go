package apiutil

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttler 限制调用频率，超出频率的调用阻塞等待
type Throttler struct {
	limiter *rate.Limiter
}

func NewThrottler(perSecond float64, burst int) *Throttler {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Throttler{limiter: rate.NewLimiter(limit, burst)}
}

func (t *Throttler) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

// Debouncer 在最后一次 Trigger 之后静默 wait 时长才执行 fn
type Debouncer struct {
	wait time.Duration
	fn   func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{wait: wait, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fn)
}

// Stop 取消尚未执行的调用，之后的 Trigger 无效
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
