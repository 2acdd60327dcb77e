package repository

import (
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
)

// RoutingTemplateRepository 路由模板仓储接口
type RoutingTemplateRepository interface {
	WithTx(tx *gorm.DB) RoutingTemplateRepository
	Save(template *model.RoutingTemplateModel) error
	FindByID(id string) (*model.RoutingTemplateModel, error)
	FindActiveByType(documentTypeID string, projectID string) (*model.RoutingTemplateModel, error)
	FindAll() ([]*model.RoutingTemplateModel, error)
	Delete(id string) error
}

// routingTemplateRepository 路由模板仓储实现
type routingTemplateRepository struct {
	db *gorm.DB
}

// NewRoutingTemplateRepository 创建路由模板仓储
func NewRoutingTemplateRepository(db *gorm.DB) RoutingTemplateRepository {
	return &routingTemplateRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓储
func (r *routingTemplateRepository) WithTx(tx *gorm.DB) RoutingTemplateRepository {
	return &routingTemplateRepository{db: tx}
}

// Save 保存路由模板及其步骤
func (r *routingTemplateRepository) Save(template *model.RoutingTemplateModel) error {
	err := r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(template).Error
	return wrapDBError("routing_template.save", err)
}

// FindByID 根据 ID 查找路由模板(含步骤)
func (r *routingTemplateRepository) FindByID(id string) (*model.RoutingTemplateModel, error) {
	var template model.RoutingTemplateModel
	err := r.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, wrapDBError("routing_template.find", err)
	}
	return &template, nil
}

// FindActiveByType 查找文档类型的有效路由模板
// 项目级模板优先于全局模板
func (r *routingTemplateRepository) FindActiveByType(documentTypeID string, projectID string) (*model.RoutingTemplateModel, error) {
	preload := func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}

	var template model.RoutingTemplateModel
	if projectID != "" {
		err := r.db.Preload("Steps", preload).
			Where("document_type_id = ? AND project_id = ? AND is_active = ?", documentTypeID, projectID, true).
			First(&template).Error
		if err == nil {
			return &template, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, wrapDBError("routing_template.find_active", err)
		}
	}

	err := r.db.Preload("Steps", preload).
		Where("document_type_id = ? AND project_id IS NULL AND is_active = ?", documentTypeID, true).
		First(&template).Error
	if err != nil {
		return nil, wrapDBError("routing_template.find_active", err)
	}
	return &template, nil
}

// FindAll 查找所有路由模板
func (r *routingTemplateRepository) FindAll() ([]*model.RoutingTemplateModel, error) {
	var templates []*model.RoutingTemplateModel
	err := r.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).Order("created_at DESC").Find(&templates).Error
	if err != nil {
		return nil, wrapDBError("routing_template.find_all", err)
	}
	return templates, nil
}

// Delete 删除路由模板
func (r *routingTemplateRepository) Delete(id string) error {
	err := r.db.Where("template_id = ?", id).Delete(&model.RoutingTemplateStepModel{}).Error
	if err != nil {
		return wrapDBError("routing_template.delete", err)
	}
	err = r.db.Where("id = ?", id).Delete(&model.RoutingTemplateModel{}).Error
	return wrapDBError("routing_template.delete", err)
}
