package repository

import (
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
)

// NumberFormatRepository 编号格式仓储接口
type NumberFormatRepository interface {
	Save(format *model.NumberFormatModel) error
	FindByID(id string) (*model.NumberFormatModel, error)
	FindByProjectAndType(projectID string, correspondenceTypeID string) (*model.NumberFormatModel, error)
	FindProjectDefault(projectID string) (*model.NumberFormatModel, error)
	FindByProject(projectID string) ([]*model.NumberFormatModel, error)
	Delete(id string) error
}

// numberFormatRepository 编号格式仓储实现
type numberFormatRepository struct {
	db *gorm.DB
}

// NewNumberFormatRepository 创建编号格式仓储
func NewNumberFormatRepository(db *gorm.DB) NumberFormatRepository {
	return &numberFormatRepository{db: db}
}

// Save 保存编号格式
func (r *numberFormatRepository) Save(format *model.NumberFormatModel) error {
	return wrapDBError("number_format.save", r.db.Save(format).Error)
}

// FindByID 按 ID 查找编号格式
func (r *numberFormatRepository) FindByID(id string) (*model.NumberFormatModel, error) {
	var format model.NumberFormatModel
	err := r.db.Where("id = ?", id).First(&format).Error
	if err != nil {
		return nil, wrapDBError("number_format.find_by_id", err)
	}
	return &format, nil
}

// FindByProjectAndType 查找项目内类型专属格式
func (r *numberFormatRepository) FindByProjectAndType(projectID string, correspondenceTypeID string) (*model.NumberFormatModel, error) {
	var format model.NumberFormatModel
	err := r.db.Where("project_id = ? AND correspondence_type_id = ? AND is_active = ?",
		projectID, correspondenceTypeID, true).First(&format).Error
	if err != nil {
		return nil, wrapDBError("number_format.find_by_type", err)
	}
	return &format, nil
}

// FindProjectDefault 查找项目默认格式(类型列为空)
func (r *numberFormatRepository) FindProjectDefault(projectID string) (*model.NumberFormatModel, error) {
	var format model.NumberFormatModel
	err := r.db.Where("project_id = ? AND correspondence_type_id IS NULL AND is_active = ?",
		projectID, true).First(&format).Error
	if err != nil {
		return nil, wrapDBError("number_format.find_default", err)
	}
	return &format, nil
}

// FindByProject 查找项目的全部编号格式
func (r *numberFormatRepository) FindByProject(projectID string) ([]*model.NumberFormatModel, error) {
	var formats []*model.NumberFormatModel
	err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&formats).Error
	if err != nil {
		return nil, wrapDBError("number_format.find_by_project", err)
	}
	return formats, nil
}

// Delete 删除编号格式
func (r *numberFormatRepository) Delete(id string) error {
	return wrapDBError("number_format.delete", r.db.Where("id = ?", id).Delete(&model.NumberFormatModel{}).Error)
}
