package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/directory"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/peancharoen/lcbp3-sub002/internal/workflow"
)

// TemplateService 路由模板服务接口
type TemplateService interface {
	Create(ctx context.Context, req *CreateTemplateRequest, actorID string) (*model.RoutingTemplateModel, error)
	Get(ctx context.Context, id string) (*model.RoutingTemplateModel, error)
	Update(ctx context.Context, id string, req *UpdateTemplateRequest, actorID string) (*model.RoutingTemplateModel, error)
	Delete(ctx context.Context, id string, actorID string) error
	List(ctx context.Context) ([]*model.RoutingTemplateModel, error)
}

// TemplateStepRequest 路由模板步骤定义
type TemplateStepRequest struct {
	Sequence         int     `json:"sequence" binding:"required"`            // 步骤序号,严格递增
	ToOrganizationID string  `json:"to_organization_id" binding:"required"` // 目标组织
	RoleID           *string `json:"role_id"`                                // 目标角色,可选
	Purpose          string  `json:"purpose"`                                // FOR_REVIEW/FOR_APPROVAL/FOR_INFORMATION
	ExpectedDays     int     `json:"expected_days"`                          // 期望处理天数,0 表示不设期限
}

// CreateTemplateRequest 创建路由模板请求
type CreateTemplateRequest struct {
	Name                 string                `json:"name" binding:"required"`                  // 模板名称
	DocumentTypeID       string                `json:"document_type_id" binding:"required"`      // 适用的文档类型
	ProjectID            *string               `json:"project_id"`                               // 为空表示全局模板
	Steps                []TemplateStepRequest `json:"steps" binding:"required"`                 // 步骤定义
	IsActive             *bool                 `json:"is_active"`                                // 缺省为激活
}

// UpdateTemplateRequest 更新路由模板请求
// 在途修订版不受影响: 转换始终沿用提交时捕获的模板
type UpdateTemplateRequest struct {
	Name     *string               `json:"name"`
	Steps    []TemplateStepRequest `json:"steps"`
	IsActive *bool                 `json:"is_active"`
}

// templateService 路由模板服务实现
type templateService struct {
	templates   repository.RoutingTemplateRepository
	directory   directory.Directory
	auditLogSvc AuditLogService
}

// NewTemplateService 创建路由模板服务
func NewTemplateService(templates repository.RoutingTemplateRepository, dir directory.Directory, auditLogSvc AuditLogService) TemplateService {
	return &templateService{
		templates:   templates,
		directory:   dir,
		auditLogSvc: auditLogSvc,
	}
}

// Create 创建路由模板
// 结构校验失败(空步骤/序号不递增/组织不存在)则拒绝落库
func (s *templateService) Create(ctx context.Context, req *CreateTemplateRequest, actorID string) (*model.RoutingTemplateModel, error) {
	now := time.Now()
	template := &model.RoutingTemplateModel{
		ID:             uuid.New().String(),
		Name:           req.Name,
		DocumentTypeID: req.DocumentTypeID,
		ProjectID:      req.ProjectID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      actorID,
		UpdatedBy:      actorID,
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	template.Steps = buildSteps(template.ID, req.Steps)

	if err := workflow.ValidateTemplate(ctx, s.directory, template); err != nil {
		return nil, err
	}
	if err := s.templates.Save(template); err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actorID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actorID, "create", "routing_template", template.ID, map[string]interface{}{
			"name":             req.Name,
			"document_type_id": req.DocumentTypeID,
			"steps":            len(req.Steps),
		})
	}

	return template, nil
}

// Get 获取路由模板
func (s *templateService) Get(ctx context.Context, id string) (*model.RoutingTemplateModel, error) {
	return s.templates.FindByID(id)
}

// Update 更新路由模板
func (s *templateService) Update(ctx context.Context, id string, req *UpdateTemplateRequest, actorID string) (*model.RoutingTemplateModel, error) {
	template, err := s.templates.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	if req.Steps != nil {
		template.Steps = buildSteps(template.ID, req.Steps)
	}
	template.UpdatedAt = time.Now()
	template.UpdatedBy = actorID

	if err := workflow.ValidateTemplate(ctx, s.directory, template); err != nil {
		return nil, err
	}
	if err := s.templates.Save(template); err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actorID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actorID, "update", "routing_template", id, map[string]interface{}{
			"steps":     len(template.Steps),
			"is_active": template.IsActive,
		})
	}

	return template, nil
}

// Delete 删除路由模板
// 已提交的修订版持有模板 ID 引用,删除前应先停用
func (s *templateService) Delete(ctx context.Context, id string, actorID string) error {
	if _, err := s.templates.FindByID(id); err != nil {
		return err
	}
	if err := s.templates.Delete(id); err != nil {
		return err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actorID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actorID, "delete", "routing_template", id, map[string]interface{}{})
	}

	return nil
}

// List 列出全部路由模板
func (s *templateService) List(ctx context.Context) ([]*model.RoutingTemplateModel, error) {
	return s.templates.FindAll()
}

// buildSteps 由请求构造步骤模型,缺省用途为 FOR_REVIEW
func buildSteps(templateID string, reqs []TemplateStepRequest) []model.RoutingTemplateStepModel {
	steps := make([]model.RoutingTemplateStepModel, 0, len(reqs))
	for _, r := range reqs {
		purpose := r.Purpose
		if purpose == "" {
			purpose = model.PurposeForReview
		}
		steps = append(steps, model.RoutingTemplateStepModel{
			ID:               uuid.New().String(),
			TemplateID:       templateID,
			Sequence:         r.Sequence,
			ToOrganizationID: r.ToOrganizationID,
			RoleID:           r.RoleID,
			Purpose:          purpose,
			ExpectedDays:     r.ExpectedDays,
		})
	}
	return steps
}
