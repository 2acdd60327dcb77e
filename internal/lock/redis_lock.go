package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// redisLock Redis 锁句柄,内部持有 redsync 互斥量
type redisLock struct {
	mutex *redsync.Mutex
}

func (l *redisLock) Key() string          { return l.mutex.Name() }
func (l *redisLock) ExpiresAt() time.Time { return l.mutex.Until() }

// redisManager 基于 redsync 的分布式锁管理器
type redisManager struct {
	rs     *redsync.Redsync
	opts   Options
	logger *logrus.Logger
}

// NewRedisManager 创建 Redis 分布式锁管理器
func NewRedisManager(client *goredislib.Client, opts Options, logger *logrus.Logger) Manager {
	if opts.Tries <= 0 {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &redisManager{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

// Acquire 获取锁
func (m *redisManager) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	delay := m.opts.RetryDelay
	jitter := m.opts.RetryJitter
	mutex := m.rs.NewMutex(key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(m.opts.Tries),
		redsync.WithRetryDelayFunc(func(tries int) time.Duration {
			wait := delay
			if jitter > 0 {
				wait += time.Duration(rand.Int63n(int64(jitter)))
			}
			return wait
		}),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		m.logger.WithField("key", key).WithError(err).Warn("lock acquisition timed out")
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
	}
	m.logger.WithField("key", key).Debug("acquired lock")
	return &redisLock{mutex: mutex}, nil
}

// Release 释放锁,幂等: 锁已过期时只记录警告
func (m *redisManager) Release(ctx context.Context, l Lock) error {
	rl, ok := l.(*redisLock)
	if !ok {
		return fmt.Errorf("lock was not acquired by this manager")
	}
	if _, err := rl.mutex.UnlockContext(ctx); err != nil {
		m.logger.WithField("key", rl.Key()).WithError(err).Warn("failed to release lock (may have expired)")
	}
	return nil
}

// Extend 为仍持有的锁续期
func (m *redisManager) Extend(ctx context.Context, l Lock, ttl time.Duration) (Lock, error) {
	rl, ok := l.(*redisLock)
	if !ok {
		return nil, fmt.Errorf("lock was not acquired by this manager")
	}
	ok, err := rl.mutex.ExtendContext(ctx)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockNotHeld, rl.Key())
	}
	return rl, nil
}
