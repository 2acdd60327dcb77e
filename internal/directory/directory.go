// Package directory 组织/主数据目录协作方
// 工作流与编号核心只依赖本接口,不直接触碰主数据表
package directory

import (
	"context"
	"errors"

	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
)

// 主数据缺失时的占位代码,与历史系统保持一致
const fallbackCode = "GEN"

// Directory 主数据目录接口
// Code 查询在记录缺失时返回占位代码而不是错误,
// 编号令牌解析依赖这一行为
type Directory interface {
	WithTx(tx *gorm.DB) Directory
	OrganizationExists(ctx context.Context, id string) (bool, error)
	OrganizationCode(ctx context.Context, id string) (string, error)
	DisciplineCode(ctx context.Context, id string) (string, error)
	ProjectCode(ctx context.Context, id string) (string, error)
	TypeCode(ctx context.Context, id string) (string, error)
	TypeRequiresNumbering(ctx context.Context, id string) (bool, error)
}

// gormDirectory 基于主数据表的目录实现
type gormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory 创建主数据目录
func NewGormDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

// WithTx 返回绑定到指定事务的目录
// 事务体内的目录查询必须走同一连接,不得回到连接池
func (d *gormDirectory) WithTx(tx *gorm.DB) Directory {
	return &gormDirectory{db: tx}
}

// OrganizationExists 判断组织是否存在
func (d *gormDirectory) OrganizationExists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	var count int64
	err := d.db.WithContext(ctx).Model(&model.OrganizationModel{}).
		Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// OrganizationCode 查询组织代码
func (d *gormDirectory) OrganizationCode(ctx context.Context, id string) (string, error) {
	if id == "" {
		return fallbackCode, nil
	}
	var org model.OrganizationModel
	err := d.db.WithContext(ctx).Select("code").Where("id = ?", id).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallbackCode, nil
	}
	if err != nil {
		return "", err
	}
	return org.Code, nil
}

// DisciplineCode 查询专业代码
func (d *gormDirectory) DisciplineCode(ctx context.Context, id string) (string, error) {
	if id == "" {
		return fallbackCode, nil
	}
	var discipline model.DisciplineModel
	err := d.db.WithContext(ctx).Select("code").Where("id = ?", id).First(&discipline).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallbackCode, nil
	}
	if err != nil {
		return "", err
	}
	return discipline.Code, nil
}

// ProjectCode 查询项目代码
func (d *gormDirectory) ProjectCode(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "PROJ", nil
	}
	var project model.ProjectModel
	err := d.db.WithContext(ctx).Select("code").Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "PROJ", nil
	}
	if err != nil {
		return "", err
	}
	return project.Code, nil
}

// TypeCode 查询文档类型代码
func (d *gormDirectory) TypeCode(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "DOC", nil
	}
	var typ model.CorrespondenceTypeModel
	err := d.db.WithContext(ctx).Select("code").Where("id = ?", id).First(&typ).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "DOC", nil
	}
	if err != nil {
		return "", err
	}
	return typ.Code, nil
}

// TypeRequiresNumbering 判断文档类型提交时是否需要签发编号
// 未登记的类型按需要编号处理
func (d *gormDirectory) TypeRequiresNumbering(ctx context.Context, id string) (bool, error) {
	var typ model.CorrespondenceTypeModel
	err := d.db.WithContext(ctx).Select("requires_numbering").Where("id = ?", id).First(&typ).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return typ.RequiresNumbering, nil
}
