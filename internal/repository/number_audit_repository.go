package repository

import (
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
)

// NumberAuditRepository 编号审计仓储接口
type NumberAuditRepository interface {
	WithTx(tx *gorm.DB) NumberAuditRepository
	Save(audit *model.NumberAuditModel) error
	FindRecent(limit int) ([]*model.NumberAuditModel, error)
	FindByProject(projectID string, limit int) ([]*model.NumberAuditModel, error)
}

// numberAuditRepository 编号审计仓储实现
type numberAuditRepository struct {
	db *gorm.DB
}

// NewNumberAuditRepository 创建编号审计仓储
func NewNumberAuditRepository(db *gorm.DB) NumberAuditRepository {
	return &numberAuditRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓储
func (r *numberAuditRepository) WithTx(tx *gorm.DB) NumberAuditRepository {
	return &numberAuditRepository{db: tx}
}

// Save 保存编号审计记录
func (r *numberAuditRepository) Save(audit *model.NumberAuditModel) error {
	return wrapDBError("number_audit.save", r.db.Create(audit).Error)
}

// FindRecent 查找最近的审计记录
func (r *numberAuditRepository) FindRecent(limit int) ([]*model.NumberAuditModel, error) {
	var audits []*model.NumberAuditModel
	err := r.db.Order("created_at DESC").Limit(limit).Find(&audits).Error
	if err != nil {
		return nil, wrapDBError("number_audit.find_recent", err)
	}
	return audits, nil
}

// FindByProject 查找项目的审计记录
func (r *numberAuditRepository) FindByProject(projectID string, limit int) ([]*model.NumberAuditModel, error) {
	var audits []*model.NumberAuditModel
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").Limit(limit).Find(&audits).Error
	if err != nil {
		return nil, wrapDBError("number_audit.find_by_project", err)
	}
	return audits, nil
}
