package model

import (
	"errors"
	"time"
)

// NumberCounterModel 文档编号计数器数据模型
// 按作用域元组唯一,last_number 单调递增,仅管理员覆写可以降低
type NumberCounterModel struct {
	ID                   string    `gorm:"primaryKey;type:varchar(64)"`
	ProjectID            string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_counter_scope"`
	OriginatorOrgID      string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_counter_scope"`
	RecipientOrgID       string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:uq_counter_scope"`
	CorrespondenceTypeID string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_counter_scope"`
	SubTypeID            string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:uq_counter_scope"`
	RFATypeID            string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:uq_counter_scope"`
	DisciplineID         string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:uq_counter_scope"`
	ResetScope           string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_counter_scope"` // 例如 YEAR_2025
	LastNumber           int64     `gorm:"type:bigint;not null;default:0"`
	Version              int64     `gorm:"type:bigint;not null;default:0"` // 乐观锁版本号
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName 指定表名
func (NumberCounterModel) TableName() string {
	return "document_number_counters"
}

// Validate 验证计数器模型
func (ncm *NumberCounterModel) Validate() error {
	if ncm.ID == "" {
		return errors.New("counter ID is required")
	}
	if ncm.ProjectID == "" {
		return errors.New("project ID is required")
	}
	if ncm.OriginatorOrgID == "" {
		return errors.New("originator organization ID is required")
	}
	if ncm.CorrespondenceTypeID == "" {
		return errors.New("correspondence type ID is required")
	}
	if ncm.ResetScope == "" {
		return errors.New("reset scope is required")
	}
	if ncm.LastNumber < 0 {
		return errors.New("last number must not be negative")
	}
	return nil
}
