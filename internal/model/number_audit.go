package model

import (
	"errors"
	"time"
)

// 编号审计操作类型
const (
	NumberOperationGenerate = "GENERATE"
	NumberOperationOverride = "MANUAL_OVERRIDE"
)

// NumberAuditModel 文档编号审计数据模型
// 每次签发与每次人工覆写各写一条,覆写记录前后值与原因
type NumberAuditModel struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)"`
	Operation       string    `gorm:"type:varchar(32);not null;index"` // GENERATE/MANUAL_OVERRIDE
	ProjectID       string    `gorm:"type:varchar(64);not null;index"`
	CounterKey      []byte    `gorm:"type:jsonb;not null"` // 作用域键快照
	GeneratedNumber string    `gorm:"type:varchar(128)"`
	OldValue        *int64    `gorm:"type:bigint"`
	NewValue        *int64    `gorm:"type:bigint"`
	Reason          string    `gorm:"type:text"`
	ActorID         string    `gorm:"type:varchar(64);not null;index"`
	IsSuccess       bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (NumberAuditModel) TableName() string {
	return "document_number_audits"
}

// Validate 验证编号审计模型
func (nam *NumberAuditModel) Validate() error {
	if nam.ID == "" {
		return errors.New("audit ID is required")
	}
	if nam.Operation == "" {
		return errors.New("operation is required")
	}
	if nam.ProjectID == "" {
		return errors.New("project ID is required")
	}
	if nam.ActorID == "" {
		return errors.New("actor ID is required")
	}
	if len(nam.CounterKey) == 0 {
		return errors.New("counter key is required")
	}
	return nil
}
