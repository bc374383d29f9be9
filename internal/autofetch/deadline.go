package autofetch

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout 单次 Fetch 的时间限制
const DefaultTimeout = 30 * time.Second

// DefaultPollInterval 检查任务是否完成的间隔
const DefaultPollInterval = 100 * time.Millisecond

// watch 注册完成回调，必须在安排第一个任务之前调用
func (op *operation) watch() <-chan struct{} {
	done := make(chan struct{}, 1)
	notify := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}
	op.ledger.SetCallback(taskSearch, notify)
	op.ledger.SetCallback(taskGetLyrics, notify)
	return done
}

// waitForCompletion 等待所有任务完成。超过 deadline 或调用方取消时清空任务并返回错误
func (op *operation) waitForCompletion(parent context.Context, done <-chan struct{}, deadline time.Time, timeout, poll time.Duration) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if op.finished() {
			return nil
		}
		select {
		case <-done:
		case <-ticker.C:
		case <-timer.C:
			if op.finished() {
				return nil
			}
			op.abort()
			op.log.Warn().Dur("timeout", timeout).Msg("Auto fetch timed out")
			return &TimeoutError{Timeout: timeout}
		case <-parent.Done():
			op.abort()
			return fmt.Errorf("auto fetch cancelled: %w", parent.Err())
		}
	}
}
