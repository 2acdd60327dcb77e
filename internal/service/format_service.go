package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
)

// FormatService 编号格式管理服务接口
type FormatService interface {
	Create(ctx context.Context, req *CreateFormatRequest, actorID string) (*model.NumberFormatModel, error)
	Update(ctx context.Context, id string, req *UpdateFormatRequest, actorID string) (*model.NumberFormatModel, error)
	Delete(ctx context.Context, id string, actorID string) error
	ListByProject(ctx context.Context, projectID string) ([]*model.NumberFormatModel, error)
}

// CreateFormatRequest 创建编号格式请求
type CreateFormatRequest struct {
	ProjectID            string  `json:"project_id" binding:"required"`
	CorrespondenceTypeID *string `json:"correspondence_type_id"` // 为空表示项目默认格式
	FormatTemplate       string  `json:"format_template" binding:"required"`
	ResetSequenceYearly  *bool   `json:"reset_sequence_yearly"`
}

// UpdateFormatRequest 更新编号格式请求
type UpdateFormatRequest struct {
	FormatTemplate      *string `json:"format_template"`
	ResetSequenceYearly *bool   `json:"reset_sequence_yearly"`
	IsActive            *bool   `json:"is_active"`
}

// formatService 编号格式管理服务实现
type formatService struct {
	formats     repository.NumberFormatRepository
	auditLogSvc AuditLogService
}

// NewFormatService 创建编号格式管理服务
func NewFormatService(formats repository.NumberFormatRepository, auditLogSvc AuditLogService) FormatService {
	return &formatService{
		formats:     formats,
		auditLogSvc: auditLogSvc,
	}
}

// Create 创建编号格式
// 保存前用占位代码试渲染一次,含未知令牌的模板当场拒绝,
// 而不是等到第一次签发时才失败
func (s *formatService) Create(ctx context.Context, req *CreateFormatRequest, actorID string) (*model.NumberFormatModel, error) {
	if err := checkFormatTemplate(req.FormatTemplate); err != nil {
		return nil, err
	}

	now := time.Now()
	format := &model.NumberFormatModel{
		ID:                   uuid.New().String(),
		ProjectID:            req.ProjectID,
		CorrespondenceTypeID: req.CorrespondenceTypeID,
		FormatTemplate:       req.FormatTemplate,
		ResetSequenceYearly:  true,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
		CreatedBy:            actorID,
		UpdatedBy:            actorID,
	}
	if req.ResetSequenceYearly != nil {
		format.ResetSequenceYearly = *req.ResetSequenceYearly
	}

	if err := s.formats.Save(format); err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actorID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actorID, "create", "number_format", format.ID, map[string]interface{}{
			"project_id":      req.ProjectID,
			"format_template": req.FormatTemplate,
		})
	}

	return format, nil
}

// Update 更新编号格式
func (s *formatService) Update(ctx context.Context, id string, req *UpdateFormatRequest, actorID string) (*model.NumberFormatModel, error) {
	format, err := s.formats.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.FormatTemplate != nil {
		if err := checkFormatTemplate(*req.FormatTemplate); err != nil {
			return nil, err
		}
		format.FormatTemplate = *req.FormatTemplate
	}
	if req.ResetSequenceYearly != nil {
		format.ResetSequenceYearly = *req.ResetSequenceYearly
	}
	if req.IsActive != nil {
		format.IsActive = *req.IsActive
	}
	format.UpdatedAt = time.Now()
	format.UpdatedBy = actorID

	if err := s.formats.Save(format); err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actorID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actorID, "update", "number_format", id, map[string]interface{}{
			"format_template": format.FormatTemplate,
			"is_active":       format.IsActive,
		})
	}

	return format, nil
}

// Delete 删除编号格式
// 删除后同作用域的签发回落到项目默认或系统默认格式
func (s *formatService) Delete(ctx context.Context, id string, actorID string) error {
	if _, err := s.formats.FindByID(id); err != nil {
		return err
	}
	if err := s.formats.Delete(id); err != nil {
		return err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actorID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actorID, "delete", "number_format", id, map[string]interface{}{})
	}

	return nil
}

// ListByProject 列出项目的全部编号格式
func (s *formatService) ListByProject(ctx context.Context, projectID string) ([]*model.NumberFormatModel, error) {
	return s.formats.FindByProject(projectID)
}

// checkFormatTemplate 用占位代码试渲染校验格式模板
func checkFormatTemplate(template string) error {
	tokens := numbering.StandardTokens(time.Now().Year(), 0)
	tokens["PROJECT"] = "PRJ"
	tokens["TYPE"] = "DOC"
	tokens["ORG"] = "ORG"
	tokens["RECIPIENT"] = "RCP"
	tokens["DISCIPLINE"] = "GEN"
	_, err := numbering.Render(template, tokens, 1)
	return err
}
