package repository

import (
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
)

// RevisionRepository 修订版仓储接口
type RevisionRepository interface {
	WithTx(tx *gorm.DB) RevisionRepository
	Save(revision *model.RevisionModel) error
	ReplaceCurrent(revision *model.RevisionModel) error
	FindByID(id string) (*model.RevisionModel, error)
	FindCurrentByCorrespondence(correspondenceID string) (*model.RevisionModel, error)
}

// revisionRepository 修订版仓储实现
type revisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository 创建修订版仓储
func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓储
func (r *revisionRepository) WithTx(tx *gorm.DB) RevisionRepository {
	return &revisionRepository{db: tx}
}

// Save 保存修订版
func (r *revisionRepository) Save(revision *model.RevisionModel) error {
	return wrapDBError("revision.save", r.db.Save(revision).Error)
}

// ReplaceCurrent 插入新修订版并使其成为文档链的当前修订版
// 同链既有修订版的 is_current 在同一事务内清除,链上始终只有一行 is_current=true
func (r *revisionRepository) ReplaceCurrent(revision *model.RevisionModel) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RevisionModel{}).
			Where("correspondence_id = ? AND is_current = ?", revision.CorrespondenceID, true).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Create(revision).Error
	})
	return wrapDBError("revision.replace_current", err)
}

// FindByID 根据 ID 查找修订版
func (r *revisionRepository) FindByID(id string) (*model.RevisionModel, error) {
	var revision model.RevisionModel
	if err := r.db.Where("id = ?", id).First(&revision).Error; err != nil {
		return nil, wrapDBError("revision.find", err)
	}
	return &revision, nil
}

// FindCurrentByCorrespondence 查找文档的当前修订版
func (r *revisionRepository) FindCurrentByCorrespondence(correspondenceID string) (*model.RevisionModel, error) {
	var revision model.RevisionModel
	err := r.db.Where("correspondence_id = ? AND is_current = ?", correspondenceID, true).
		First(&revision).Error
	if err != nil {
		return nil, wrapDBError("revision.find_current", err)
	}
	return &revision, nil
}
