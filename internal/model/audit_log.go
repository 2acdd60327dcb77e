package model

import (
	"errors"
	"time"
)

// AuditLogModel 业务审计日志数据模型
// 每次工作流转换写一条,记录动作、操作人与前后状态
type AuditLogModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	ActorID      string    `gorm:"type:varchar(64);not null;index"`
	Action       string    `gorm:"type:varchar(64);not null;index"` // submit/approve/reject/return/forward/acknowledge
	ResourceType string    `gorm:"type:varchar(32);not null"`       // revision/routing_template/number_format
	ResourceID   string    `gorm:"type:varchar(64);not null;index"`
	Details      []byte    `gorm:"type:jsonb"` // 操作详情(含前后状态)
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (alm *AuditLogModel) Validate() error {
	if alm.ID == "" {
		return errors.New("audit log ID is required")
	}
	if alm.ActorID == "" {
		return errors.New("actor ID is required")
	}
	if alm.Action == "" {
		return errors.New("action is required")
	}
	if alm.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if alm.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
