package multisig

import (
	"context"
	"time"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/provider"
)

const (
	// DefaultPollInterval 两次探测之间的间隔
	DefaultPollInterval = time.Second
	// DefaultMaxAttempts 首次探测之后的最大重试次数
	DefaultMaxAttempts = 10
)

// Waiter 等待钱包提供者注入并解锁
type Waiter struct {
	locator     provider.Locator
	clock       Clock
	interval    time.Duration
	maxAttempts int
	logger      client.Logger
}

// WaiterOption Waiter 选项
type WaiterOption func(*Waiter)

// WithWaiterClock 替换时钟
func WithWaiterClock(c Clock) WaiterOption {
	return func(w *Waiter) { w.clock = c }
}

// WithPollInterval 设置探测间隔
func WithPollInterval(d time.Duration) WaiterOption {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithMaxAttempts 设置最大重试次数
func WithMaxAttempts(n int) WaiterOption {
	return func(w *Waiter) {
		if n >= 0 {
			w.maxAttempts = n
		}
	}
}

// WithWaiterLogger 设置日志
func WithWaiterLogger(l client.Logger) WaiterOption {
	return func(w *Waiter) { w.logger = orNop(l) }
}

// NewWaiter 创建 Waiter
func NewWaiter(locator provider.Locator, opts ...WaiterOption) *Waiter {
	w := &Waiter{
		locator:     locator,
		clock:       SystemClock(),
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
		logger:      nopLogger{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Result 一次等待的终态
type Result struct {
	Provider provider.Provider
	Err      error
}

// Wait 阻塞直到提供者就绪、重试耗尽或 ctx 取消
//
// 就绪要求提供者存在、Ready() 为真且默认账户非空。
// 重试耗尽时按最后一次观察区分 ErrProviderLocked 与 ErrProviderNotDetected。
func (w *Waiter) Wait(ctx context.Context) (provider.Provider, error) {
	for attempt := 0; ; attempt++ {
		p := w.lookup()
		if p != nil && p.Ready() && p.DefaultAddress() != "" {
			w.logger.Debug("Provider ready", "attempt", attempt, "address", p.DefaultAddress())
			return p, nil
		}

		if attempt >= w.maxAttempts {
			if p != nil && p.Ready() {
				w.logger.Warn("Provider ready but no account unlocked", "attempts", attempt+1)
				return nil, newError(KindProviderLocked, nil)
			}
			w.logger.Warn("Provider not detected", "attempts", attempt+1)
			return nil, newError(KindProviderNotDetected, nil)
		}

		w.logger.Debug("Provider not ready, retrying", "attempt", attempt, "interval", w.interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.clock.After(w.interval):
		}
	}
}

// Start 在后台执行 Wait，结果通道恰好投递一次后关闭
func (w *Waiter) Start(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		p, err := w.Wait(ctx)
		ch <- Result{Provider: p, Err: err}
	}()
	return ch
}

func (w *Waiter) lookup() provider.Provider {
	if w.locator == nil {
		return nil
	}
	return w.locator.Lookup()
}
