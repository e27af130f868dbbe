// Package retry 提供有界指数退避重试。
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
)

// Config 重试配置。
type Config struct {
	// MaxAttempts 最大尝试次数（包括首次调用）。
	MaxAttempts int
	// InitialDelay 初始延迟时间。
	InitialDelay time.Duration
	// MaxDelay 最大延迟时间。
	MaxDelay time.Duration
	// Multiplier 延迟倍增因子（指数退避）。
	Multiplier float64
	// Retryable 可重试的错误判断函数，nil 表示所有错误都可重试。
	Retryable func(error) bool
	// Sleep 延迟等待函数，默认基于 time.After。测试可以注入假实现。
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig 返回默认重试配置。
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do 使用指数退避重试执行 fn，直到成功或尝试次数耗尽。
// 返回的错误包装了最后一次尝试的错误。
func Do(ctx context.Context, config *Config, fn func() error) error {
	if config == nil {
		config = DefaultConfig()
	}

	sleep := config.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if config.Retryable != nil && !config.Retryable(err) {
			logger.Debugw("error is not retryable", "error", err.Error())
			return err
		}

		// 最后一次尝试失败，不再重试
		if attempt >= config.MaxAttempts {
			logger.Warnw("max retry attempts reached",
				"attempts", attempt,
				"error", err.Error(),
			)
			return fmt.Errorf("max retry attempts (%d) reached: %w", config.MaxAttempts, lastErr)
		}

		logger.Debugw("retrying after delay",
			"attempt", attempt,
			"delay", delay,
			"error", err.Error(),
		)

		if err := sleep(ctx, delay); err != nil {
			return err
		}

		// 计算下次延迟（指数退避）
		delay = time.Duration(float64(delay) * config.Multiplier)
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return lastErr
}
