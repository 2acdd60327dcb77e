package lock

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormLock 数据库锁句柄
type gormLock struct {
	key       string
	token     string
	expiresAt time.Time
}

func (l *gormLock) Key() string          { return l.key }
func (l *gormLock) ExpiresAt() time.Time { return l.expiresAt }

// gormManager 基于锁表的分布式锁管理器
// 利用主键冲突实现互斥,过期行由后续竞争者清理
type gormManager struct {
	db     *gorm.DB
	opts   Options
	logger *logrus.Logger
}

// NewGormManager 创建数据库分布式锁管理器
func NewGormManager(db *gorm.DB, opts Options, logger *logrus.Logger) Manager {
	if opts.Tries <= 0 {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &gormManager{db: db, opts: opts, logger: logger}
}

// Acquire 获取锁,在有限次带抖动退避的重试内未成功则返回 ErrLockTimeout
func (m *gormManager) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	token := uuid.New().String()

	for attempt := 0; attempt < m.opts.Tries; attempt++ {
		now := time.Now()

		// 清理崩溃持有者留下的过期行
		if err := m.db.WithContext(ctx).
			Where("key = ? AND expires_at < ?", key, now).
			Delete(&model.DistributedLockModel{}).Error; err != nil {
			return nil, fmt.Errorf("failed to reap expired lock: %w", err)
		}

		row := &model.DistributedLockModel{
			Key:       key,
			Token:     token,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		res := m.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to insert lock row: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			m.logger.WithField("key", key).Debug("acquired lock")
			return &gormLock{key: key, token: token, expiresAt: row.ExpiresAt}, nil
		}

		// 冲突: 锁被他人持有,退避后重试
		wait := m.opts.RetryDelay
		if m.opts.RetryJitter > 0 {
			wait += time.Duration(rand.Int63n(int64(m.opts.RetryJitter)))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	m.logger.WithField("key", key).Warn("lock acquisition timed out")
	return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
}

// Release 释放锁,幂等: 行已过期或已被清理时为空操作
func (m *gormManager) Release(ctx context.Context, l Lock) error {
	gl, ok := l.(*gormLock)
	if !ok {
		return fmt.Errorf("lock was not acquired by this manager")
	}
	err := m.db.WithContext(ctx).
		Where("key = ? AND token = ?", gl.key, gl.token).
		Delete(&model.DistributedLockModel{}).Error
	if err != nil {
		m.logger.WithField("key", gl.key).WithError(err).Warn("failed to release lock")
		return nil
	}
	return nil
}

// Extend 为仍持有的锁续期
func (m *gormManager) Extend(ctx context.Context, l Lock, ttl time.Duration) (Lock, error) {
	gl, ok := l.(*gormLock)
	if !ok {
		return nil, fmt.Errorf("lock was not acquired by this manager")
	}
	now := time.Now()
	newExpiry := now.Add(ttl)
	res := m.db.WithContext(ctx).Model(&model.DistributedLockModel{}).
		Where("key = ? AND token = ? AND expires_at >= ?", gl.key, gl.token, now).
		Update("expires_at", newExpiry)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to extend lock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLockNotHeld, gl.key)
	}
	return &gormLock{key: gl.key, token: gl.token, expiresAt: newExpiry}, nil
}
