package model

import (
	"errors"
	"time"
)

// 路由步骤目的
const (
	PurposeForReview      = "FOR_REVIEW"
	PurposeForApproval    = "FOR_APPROVAL"
	PurposeForInformation = "FOR_INFORMATION"
)

// RoutingTemplateModel 路由模板数据模型
// project_id 为空表示全局模板,项目级模板优先于全局模板
type RoutingTemplateModel struct {
	ID             string                     `gorm:"primaryKey;type:varchar(64)"`
	Name           string                     `gorm:"type:varchar(255);not null"`
	Description    string                     `gorm:"type:text"`
	DocumentTypeID string                     `gorm:"type:varchar(64);not null;index"` // 适用的文档类型 ID
	ProjectID      *string                    `gorm:"type:varchar(64);index"`
	IsActive       bool                       `gorm:"not null;default:true;index"`
	Steps          []RoutingTemplateStepModel `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                  `gorm:"not null"`
	UpdatedAt      time.Time                  `gorm:"not null"`
	CreatedBy      string                     `gorm:"type:varchar(64)"` // 创建人 ID
	UpdatedBy      string                     `gorm:"type:varchar(64)"` // 更新人 ID
}

// TableName 指定表名
func (RoutingTemplateModel) TableName() string {
	return "correspondence_routing_templates"
}

// Validate 验证路由模板模型
// 步骤序号必须严格递增,至少包含一个步骤
func (rtm *RoutingTemplateModel) Validate() error {
	if rtm.ID == "" {
		return errors.New("template ID is required")
	}
	if rtm.Name == "" {
		return errors.New("template name is required")
	}
	if rtm.DocumentTypeID == "" {
		return errors.New("document type ID is required")
	}
	if len(rtm.Steps) == 0 {
		return errors.New("template must have at least one step")
	}
	prev := 0
	for i := range rtm.Steps {
		step := &rtm.Steps[i]
		if err := step.Validate(); err != nil {
			return err
		}
		if step.Sequence <= prev {
			return errors.New("step sequence numbers must be strictly increasing")
		}
		prev = step.Sequence
	}
	return nil
}

// StepAt 按序号查找步骤,未找到时返回 nil
func (rtm *RoutingTemplateModel) StepAt(sequence int) *RoutingTemplateStepModel {
	for i := range rtm.Steps {
		if rtm.Steps[i].Sequence == sequence {
			return &rtm.Steps[i]
		}
	}
	return nil
}

// NextStepAfter 返回指定序号之后的下一个步骤,最后一步之后返回 nil
func (rtm *RoutingTemplateModel) NextStepAfter(sequence int) *RoutingTemplateStepModel {
	var next *RoutingTemplateStepModel
	for i := range rtm.Steps {
		step := &rtm.Steps[i]
		if step.Sequence > sequence && (next == nil || step.Sequence < next.Sequence) {
			next = step
		}
	}
	return next
}

// FirstStep 返回序号最小的步骤
func (rtm *RoutingTemplateModel) FirstStep() *RoutingTemplateStepModel {
	var first *RoutingTemplateStepModel
	for i := range rtm.Steps {
		step := &rtm.Steps[i]
		if first == nil || step.Sequence < first.Sequence {
			first = step
		}
	}
	return first
}

// RoutingTemplateStepModel 路由模板步骤数据模型
type RoutingTemplateStepModel struct {
	ID               string  `gorm:"primaryKey;type:varchar(64)"`
	TemplateID       string  `gorm:"type:varchar(64);not null;index"`
	Sequence         int     `gorm:"type:int;not null"`
	ToOrganizationID string  `gorm:"type:varchar(64);not null"` // 目标组织 ID
	RoleID           *string `gorm:"type:varchar(64)"`
	Purpose          string  `gorm:"type:varchar(32);not null;default:FOR_REVIEW"`
	ExpectedDays     int     `gorm:"type:int;not null;default:0"` // 预期处理天数,0 表示不设期限
}

// TableName 指定表名
func (RoutingTemplateStepModel) TableName() string {
	return "correspondence_routing_template_steps"
}

// Validate 验证路由步骤模型
func (sm *RoutingTemplateStepModel) Validate() error {
	if sm.Sequence <= 0 {
		return errors.New("step sequence must be positive")
	}
	if sm.ToOrganizationID == "" {
		return errors.New("step target organization ID is required")
	}
	if sm.Purpose == "" {
		return errors.New("step purpose is required")
	}
	return nil
}
