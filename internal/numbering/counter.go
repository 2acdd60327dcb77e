package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterStore 编号计数器存储
// 存储自身不串行化并发调用方: IncrementAndGet 必须在持有
// 对应作用域分布式锁的前提下调用
type CounterStore struct {
	db *gorm.DB
}

// NewCounterStore 创建计数器存储
func NewCounterStore(db *gorm.DB) *CounterStore {
	return &CounterStore{db: db}
}

// WithTx 返回绑定到指定事务的存储
func (s *CounterStore) WithTx(tx *gorm.DB) *CounterStore {
	return &CounterStore{db: tx}
}

// GetOrCreate 返回作用域对应的计数器行,不存在时以 last_number=0 创建
// 并发首次访问安全: 唯一键冲突被忽略后转为读取
func (s *CounterStore) GetOrCreate(ctx context.Context, key ScopeKey) (*model.NumberCounterModel, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	row := &model.NumberCounterModel{
		ID:                   uuid.New().String(),
		ProjectID:            key.ProjectID,
		OriginatorOrgID:      key.OriginatorOrgID,
		RecipientOrgID:       key.RecipientOrgID,
		CorrespondenceTypeID: key.CorrespondenceTypeID,
		SubTypeID:            key.SubTypeID,
		RFATypeID:            key.RFATypeID,
		DisciplineID:         key.DisciplineID,
		ResetScope:           key.ResetScope,
		LastNumber:           0,
		Version:              0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	var counter model.NumberCounterModel
	if err := s.db.WithContext(ctx).Where(key.conditions()).First(&counter).Error; err != nil {
		return nil, fmt.Errorf("failed to load counter: %w", err)
	}
	return &counter, nil
}

// IncrementAndGet 读取当前值并递增,返回递增后的编号
// 乐观锁版本校验作为分布式锁失效时的纵深防御
func (s *CounterStore) IncrementAndGet(ctx context.Context, key ScopeKey) (int64, error) {
	counter, err := s.GetOrCreate(ctx, key)
	if err != nil {
		return 0, err
	}

	next := counter.LastNumber + 1
	res := s.db.WithContext(ctx).Model(&model.NumberCounterModel{}).
		Where("id = ? AND version = ?", counter.ID, counter.Version).
		Updates(map[string]interface{}{
			"last_number": next,
			"version":     counter.Version + 1,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrCounterConflict
	}
	return next, nil
}

// Current 返回当前值,不递增;计数器不存在时返回 0
func (s *CounterStore) Current(ctx context.Context, key ScopeKey) (int64, error) {
	var counter model.NumberCounterModel
	err := s.db.WithContext(ctx).Where(key.conditions()).First(&counter).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load counter: %w", err)
	}
	return counter.LastNumber, nil
}

// Override 管理员覆写计数器值,返回覆写前的值
// 与常规递增不同,允许写入低于当前值的数字以纠正错误
func (s *CounterStore) Override(ctx context.Context, key ScopeKey, newValue int64) (int64, error) {
	counter, err := s.GetOrCreate(ctx, key)
	if err != nil {
		return 0, err
	}

	old := counter.LastNumber
	res := s.db.WithContext(ctx).Model(&model.NumberCounterModel{}).
		Where("id = ?", counter.ID).
		Updates(map[string]interface{}{
			"last_number": newValue,
			"version":     counter.Version + 1,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to override counter: %w", res.Error)
	}
	return old, nil
}
