package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy 显式重试策略
// 在锁管理器与持久化调用点按需包装,不做隐式全局重试
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration     // 初始退避间隔,按次指数增长
	Jitter      time.Duration     // 每次退避附加的随机抖动上限
	Retryable   func(error) bool  // 返回 false 时立即放弃
}

// Do 执行 fn,失败且可重试时按指数退避重试
// 上下文取消优先于剩余重试次数
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	backoff := p.Backoff
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		wait := backoff
		if p.Jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(p.Jitter)))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return err
}
