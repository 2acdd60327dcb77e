package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
)

// RevisionService 修订版服务接口
// 只覆盖路由与编号所需的最小生命周期: 建草稿、查询
type RevisionService interface {
	CreateDraft(ctx context.Context, req *CreateRevisionRequest, actorID string) (*model.RevisionModel, error)
	Get(ctx context.Context, id string) (*model.RevisionModel, error)
}

// CreateRevisionRequest 创建修订版草稿请求
type CreateRevisionRequest struct {
	CorrespondenceID     string `json:"correspondence_id" binding:"required"`
	ProjectID            string `json:"project_id" binding:"required"`
	CorrespondenceTypeID string `json:"correspondence_type_id" binding:"required"`
	DisciplineID         string `json:"discipline_id"`
	OriginatorOrgID      string `json:"originator_org_id" binding:"required"`
	RecipientOrgID       string `json:"recipient_org_id" binding:"required"`
}

// revisionService 修订版服务实现
type revisionService struct {
	revisions   repository.RevisionRepository
	auditLogSvc AuditLogService
}

// NewRevisionService 创建修订版服务
func NewRevisionService(revisions repository.RevisionRepository, auditLogSvc AuditLogService) RevisionService {
	return &revisionService{
		revisions:   revisions,
		auditLogSvc: auditLogSvc,
	}
}

// CreateDraft 创建修订版草稿
// 新草稿成为该函件的当前修订版,编号在提交时才签发
func (s *revisionService) CreateDraft(ctx context.Context, req *CreateRevisionRequest, actorID string) (*model.RevisionModel, error) {
	now := time.Now()
	revision := &model.RevisionModel{
		ID:                   uuid.New().String(),
		CorrespondenceID:     req.CorrespondenceID,
		ProjectID:            req.ProjectID,
		CorrespondenceTypeID: req.CorrespondenceTypeID,
		DisciplineID:         req.DisciplineID,
		OriginatorOrgID:      req.OriginatorOrgID,
		RecipientOrgID:       req.RecipientOrgID,
		Status:               model.RevisionStatusDraft,
		IsCurrent:            true,
		CreatedAt:            now,
		UpdatedAt:            now,
		CreatedBy:            actorID,
	}
	if err := revision.Validate(); err != nil {
		return nil, err
	}
	// 同链旧修订版的 is_current 同步清除,链上始终只有一个当前修订版
	if err := s.revisions.ReplaceCurrent(revision); err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actorID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actorID, "create", "revision", revision.ID, map[string]interface{}{
			"correspondence_id": req.CorrespondenceID,
			"project_id":        req.ProjectID,
		})
	}

	return revision, nil
}

// Get 查询修订版
func (s *revisionService) Get(ctx context.Context, id string) (*model.RevisionModel, error) {
	return s.revisions.FindByID(id)
}
