// Package lock 提供编号临界区使用的分布式互斥锁
// 生产环境使用 Redis(redsync),无 Redis 时退化为数据库锁表实现
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLockTimeout 在有限次重试内未能获取锁
// 属于瞬态错误,调用方可退避后重试
var ErrLockTimeout = errors.New("lock acquisition timed out")

// ErrLockNotHeld 续期时锁已不再由当前持有者持有
var ErrLockNotHeld = errors.New("lock no longer held")

// Lock 已获取的锁句柄
type Lock interface {
	Key() string
	ExpiresAt() time.Time
}

// Manager 分布式锁管理器接口
// Release 幂等: 释放已过期的锁不是错误
type Manager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
	Release(ctx context.Context, l Lock) error
	Extend(ctx context.Context, l Lock, ttl time.Duration) (Lock, error)
}

// Options 锁获取的重试参数
type Options struct {
	Tries       int           // 重试次数上限
	RetryDelay  time.Duration // 基础重试间隔
	RetryJitter time.Duration // 随机抖动上限
}

// DefaultOptions 默认重试参数
func DefaultOptions() Options {
	return Options{
		Tries:       5,
		RetryDelay:  100 * time.Millisecond,
		RetryJitter: 50 * time.Millisecond,
	}
}
