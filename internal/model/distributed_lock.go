package model

import (
	"errors"
	"time"
)

// DistributedLockModel 数据库分布式锁数据模型
// 锁的持有以 (key, token) 对标识,expires_at 之后视为失效,
// 允许后续竞争者清理崩溃持有者留下的过期行
type DistributedLockModel struct {
	Key       string    `gorm:"primaryKey;type:varchar(255)"`
	Token     string    `gorm:"type:varchar(64);not null"` // 持有者令牌
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DistributedLockModel) TableName() string {
	return "distributed_locks"
}

// Validate 验证分布式锁模型
func (dlm *DistributedLockModel) Validate() error {
	if dlm.Key == "" {
		return errors.New("lock key is required")
	}
	if dlm.Token == "" {
		return errors.New("lock token is required")
	}
	if dlm.ExpiresAt.IsZero() {
		return errors.New("lock expiry is required")
	}
	return nil
}

// IsExpired 判断锁是否已过期
func (dlm *DistributedLockModel) IsExpired(now time.Time) bool {
	return now.After(dlm.ExpiresAt)
}
