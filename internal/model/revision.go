package model

import (
	"errors"
	"time"
)

// 修订版状态
const (
	RevisionStatusDraft     = "DRAFT"
	RevisionStatusNumbered  = "NUMBERED"
	RevisionStatusInRouting = "IN_ROUTING"
	RevisionStatusApproved  = "APPROVED"
	RevisionStatusRejected  = "REJECTED"
	RevisionStatusClosed    = "CLOSED"
)

// IsTerminalStatus 判断修订版状态是否为终态
func IsTerminalStatus(status string) bool {
	switch status {
	case RevisionStatusApproved, RevisionStatusRejected, RevisionStatusClosed:
		return true
	}
	return false
}

// RevisionModel 文档修订版数据模型
// 一个文档链中同时只有一个 is_current=true 的修订版
type RevisionModel struct {
	ID                   string     `gorm:"primaryKey;type:varchar(64)"`
	CorrespondenceID     string     `gorm:"type:varchar(64);not null;index"` // 所属文档 ID
	ProjectID            string     `gorm:"type:varchar(64);not null;index"`
	CorrespondenceTypeID string     `gorm:"type:varchar(64);not null;index"`
	DisciplineID         string     `gorm:"type:varchar(64)"`
	OriginatorOrgID      string     `gorm:"type:varchar(64);not null"` // 发起组织 ID
	RecipientOrgID       string     `gorm:"type:varchar(64)"`
	DocumentNumber       *string    `gorm:"type:varchar(128);uniqueIndex"` // 编号签发前为空
	Status               string     `gorm:"type:varchar(32);not null;index"`
	CurrentSequence      int        `gorm:"type:int;not null;default:0"` // 当前路由步骤序号
	RoutingTemplateID    *string    `gorm:"type:varchar(64)"` // 提交时捕获的路由模板 ID
	IsCurrent            bool       `gorm:"not null;default:true;index"`
	CreatedAt            time.Time  `gorm:"not null;index"`
	UpdatedAt            time.Time  `gorm:"not null"`
	SubmittedAt          *time.Time `gorm:"index"`
	CreatedBy            string     `gorm:"type:varchar(64);index"` // 创建人 ID
}

// TableName 指定表名
func (RevisionModel) TableName() string {
	return "correspondence_revisions"
}

// Validate 验证修订版模型
func (rm *RevisionModel) Validate() error {
	if rm.ID == "" {
		return errors.New("revision ID is required")
	}
	if rm.CorrespondenceID == "" {
		return errors.New("correspondence ID is required")
	}
	if rm.ProjectID == "" {
		return errors.New("project ID is required")
	}
	if rm.CorrespondenceTypeID == "" {
		return errors.New("correspondence type ID is required")
	}
	if rm.OriginatorOrgID == "" {
		return errors.New("originator organization ID is required")
	}
	if rm.Status == "" {
		return errors.New("revision status is required")
	}
	return nil
}
