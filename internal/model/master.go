package model

import "time"

// 主数据表: 组织/专业/文档类型/项目的代码表
// 仅承载编号令牌解析与模板校验所需的最小字段,
// 完整主数据维护属于外部系统

// ProjectModel 项目数据模型
type ProjectModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Code      string    `gorm:"type:varchar(32);not null;uniqueIndex"` // 项目代码,用于 {PROJECT} 令牌
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (ProjectModel) TableName() string {
	return "projects"
}

// OrganizationModel 组织数据模型
type OrganizationModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Code      string    `gorm:"type:varchar(32);not null;uniqueIndex"` // 组织代码,用于 {ORG}/{RECIPIENT} 令牌
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (OrganizationModel) TableName() string {
	return "organizations"
}

// DisciplineModel 专业数据模型
type DisciplineModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Code      string    `gorm:"type:varchar(32);not null;uniqueIndex"` // 专业代码,用于 {DISCIPLINE} 令牌
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DisciplineModel) TableName() string {
	return "disciplines"
}

// CorrespondenceTypeModel 文档类型数据模型
type CorrespondenceTypeModel struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)"`
	Code             string    `gorm:"type:varchar(32);not null;uniqueIndex"` // 类型代码,用于 {TYPE} 令牌
	Name             string    `gorm:"type:varchar(255);not null"`
	RequiresNumbering bool     `gorm:"not null;default:true"` // 提交时是否需要签发编号
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName 指定表名
func (CorrespondenceTypeModel) TableName() string {
	return "correspondence_types"
}
