package model

import (
	"errors"
	"time"
)

// NumberFormatModel 文档编号格式模板数据模型
// correspondence_type_id 为空表示项目默认格式,类型专属格式优先
type NumberFormatModel struct {
	ID                   string    `gorm:"primaryKey;type:varchar(64)"`
	ProjectID            string    `gorm:"type:varchar(64);not null;index:idx_format_scope"`
	CorrespondenceTypeID *string   `gorm:"type:varchar(64);index:idx_format_scope"`
	FormatTemplate       string    `gorm:"type:varchar(255);not null"` // 例如 {ORG}-{TYPE}-{DISCIPLINE}-{SEQ:4}
	ResetSequenceYearly  bool      `gorm:"not null;default:true"`
	IsActive             bool      `gorm:"not null;default:true;index"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
	CreatedBy            string    `gorm:"type:varchar(64)"` // 创建人 ID
	UpdatedBy            string    `gorm:"type:varchar(64)"` // 更新人 ID
}

// TableName 指定表名
func (NumberFormatModel) TableName() string {
	return "document_number_formats"
}

// Validate 验证编号格式模型
func (nfm *NumberFormatModel) Validate() error {
	if nfm.ID == "" {
		return errors.New("format ID is required")
	}
	if nfm.ProjectID == "" {
		return errors.New("project ID is required")
	}
	if nfm.FormatTemplate == "" {
		return errors.New("format template is required")
	}
	return nil
}
