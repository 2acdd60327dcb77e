package model

import (
	"errors"
	"time"
)

// 路由实例状态
const (
	RoutingStatusSent      = "SENT"
	RoutingStatusCompleted = "COMPLETED"
	RoutingStatusRejected  = "REJECTED"
	RoutingStatusReturned  = "RETURNED"
)

// RoutingInstanceModel 路由实例数据模型
// 修订版审批链中实际走过的一跳,历史只追加不修改:
// 回退到早先步骤时插入新行,已终结(COMPLETED/REJECTED)的行不再变更
type RoutingInstanceModel struct {
	ID                 string     `gorm:"primaryKey;type:varchar(64)"`
	RevisionID         string     `gorm:"type:varchar(64);not null;index"`
	TemplateID         string     `gorm:"type:varchar(64);not null"`
	Sequence           int        `gorm:"type:int;not null"`
	FromOrganizationID string     `gorm:"type:varchar(64);not null"`
	ToOrganizationID   string     `gorm:"type:varchar(64);not null;index"`
	RoleID             *string    `gorm:"type:varchar(64)"`
	Purpose            string     `gorm:"type:varchar(32);not null;default:FOR_REVIEW"`
	Status             string     `gorm:"type:varchar(32);not null;index;default:SENT"`
	Comment            string     `gorm:"type:text"`
	DueDate            *time.Time `gorm:"index"`
	ProcessedByUserID  *string    `gorm:"type:varchar(64)"`
	ProcessedAt        *time.Time
	CreatedAt          time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (RoutingInstanceModel) TableName() string {
	return "correspondence_routings"
}

// Validate 验证路由实例模型
func (rim *RoutingInstanceModel) Validate() error {
	if rim.ID == "" {
		return errors.New("routing instance ID is required")
	}
	if rim.RevisionID == "" {
		return errors.New("revision ID is required")
	}
	if rim.Sequence <= 0 {
		return errors.New("routing sequence must be positive")
	}
	if rim.FromOrganizationID == "" {
		return errors.New("from organization ID is required")
	}
	if rim.ToOrganizationID == "" {
		return errors.New("to organization ID is required")
	}
	if rim.Status == "" {
		return errors.New("routing status is required")
	}
	return nil
}

// IsOpen 判断路由实例是否仍在等待处理
func (rim *RoutingInstanceModel) IsOpen() bool {
	return rim.Status == RoutingStatusSent
}
