package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, actorID string, action string, resourceType string, resourceID string, details interface{}) error
	GetByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error)
	GetRecent(ctx context.Context, limit int) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	actorID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}

// GetByResource 查询某资源的审计轨迹
func (s *auditLogService) GetByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(resourceType, resourceID)
}

// GetRecent 查询最近的审计日志
func (s *auditLogService) GetRecent(ctx context.Context, limit int) ([]*model.AuditLogModel, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.auditRepo.FindRecent(limit)
}
