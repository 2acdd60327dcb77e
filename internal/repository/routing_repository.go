package repository

import (
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
)

// RoutingInstanceRepository 路由实例仓储接口
type RoutingInstanceRepository interface {
	WithTx(tx *gorm.DB) RoutingInstanceRepository
	Create(instance *model.RoutingInstanceModel) error
	Update(instance *model.RoutingInstanceModel) error
	FindByRevision(revisionID string) ([]*model.RoutingInstanceModel, error)
	FindOpenByRevision(revisionID string) (*model.RoutingInstanceModel, error)
	ExistsAtSequence(revisionID string, sequence int) (bool, error)
}

// routingInstanceRepository 路由实例仓储实现
type routingInstanceRepository struct {
	db *gorm.DB
}

// NewRoutingInstanceRepository 创建路由实例仓储
func NewRoutingInstanceRepository(db *gorm.DB) RoutingInstanceRepository {
	return &routingInstanceRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓储
func (r *routingInstanceRepository) WithTx(tx *gorm.DB) RoutingInstanceRepository {
	return &routingInstanceRepository{db: tx}
}

// Create 新建路由实例
// 历史行只追加: 回退时插入新行而不是改写旧行
func (r *routingInstanceRepository) Create(instance *model.RoutingInstanceModel) error {
	return wrapDBError("routing.create", r.db.Create(instance).Error)
}

// Update 更新路由实例(仅限仍为 SENT 的当前行)
func (r *routingInstanceRepository) Update(instance *model.RoutingInstanceModel) error {
	return wrapDBError("routing.update", r.db.Save(instance).Error)
}

// FindByRevision 查找修订版的全部路由历史,按创建顺序返回
func (r *routingInstanceRepository) FindByRevision(revisionID string) ([]*model.RoutingInstanceModel, error) {
	var instances []*model.RoutingInstanceModel
	err := r.db.Where("revision_id = ?", revisionID).
		Order("created_at ASC, id ASC").
		Find(&instances).Error
	if err != nil {
		return nil, wrapDBError("routing.find_by_revision", err)
	}
	return instances, nil
}

// FindOpenByRevision 查找修订版当前待处理(SENT)的路由实例
// 同一修订版任意时刻至多存在一个 SENT 行
func (r *routingInstanceRepository) FindOpenByRevision(revisionID string) (*model.RoutingInstanceModel, error) {
	var instance model.RoutingInstanceModel
	err := r.db.Where("revision_id = ? AND status = ?", revisionID, model.RoutingStatusSent).
		First(&instance).Error
	if err != nil {
		return nil, wrapDBError("routing.find_open", err)
	}
	return &instance, nil
}

// ExistsAtSequence 判断修订版历史中是否出现过指定序号的步骤
func (r *routingInstanceRepository) ExistsAtSequence(revisionID string, sequence int) (bool, error) {
	var count int64
	err := r.db.Model(&model.RoutingInstanceModel{}).
		Where("revision_id = ? AND sequence = ?", revisionID, sequence).
		Count(&count).Error
	if err != nil {
		return false, wrapDBError("routing.exists_at_sequence", err)
	}
	return count > 0, nil
}
