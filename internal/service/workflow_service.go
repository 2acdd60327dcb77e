package service

import (
	"context"
	"strings"

	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/workflow"
)

// WorkflowService 文档路由工作流服务接口
type WorkflowService interface {
	Submit(ctx context.Context, revisionID string, req *SubmitRequest, actor workflow.Actor) (*workflow.SubmitResult, error)
	Act(ctx context.Context, revisionID string, req *ActionRequest, actor workflow.Actor) (*workflow.ActResult, error)
	CurrentAssignee(ctx context.Context, revisionID string) (*workflow.Assignee, error)
	History(ctx context.Context, revisionID string) ([]*model.RoutingInstanceModel, error)
	Close(ctx context.Context, revisionID string, req *CloseRequest, actor workflow.Actor) error
}

// SubmitRequest 提交修订版请求
type SubmitRequest struct {
	TemplateID *string `json:"template_id"` // 路由模板 ID,为空时按文档类型解析
}

// ActionRequest 工作流动作请求
type ActionRequest struct {
	Action           string `json:"action" binding:"required"` // APPROVE/REJECT/RETURN/FORWARD/ACKNOWLEDGE
	Comment          string `json:"comment"`
	ReturnToSequence int    `json:"return_to_sequence"` // RETURN 的目标步骤序号
	ForwardToOrgID   string `json:"forward_to_org_id"`  // FORWARD 的新目标组织
}

// CloseRequest 行政关闭请求
type CloseRequest struct {
	Reason string `json:"reason" binding:"required"` // 关闭原因
}

// workflowService 工作流服务实现
type workflowService struct {
	engine      *workflow.Engine
	auditLogSvc AuditLogService
}

// NewWorkflowService 创建工作流服务
func NewWorkflowService(engine *workflow.Engine, auditLogSvc AuditLogService) WorkflowService {
	return &workflowService{
		engine:      engine,
		auditLogSvc: auditLogSvc,
	}
}

// Submit 提交修订版进入路由
func (s *workflowService) Submit(ctx context.Context, revisionID string, req *SubmitRequest, actor workflow.Actor) (*workflow.SubmitResult, error) {
	var templateID *string
	if req != nil {
		templateID = req.TemplateID
	}

	result, err := s.engine.Submit(ctx, revisionID, templateID, actor)
	if err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actor.UserID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "submit", "revision", revisionID, map[string]interface{}{
			"document_number": result.DocumentNumber,
			"current_step":    result.CurrentStep,
		})
	}

	return result, nil
}

// Act 对当前路由步骤执行动作
func (s *workflowService) Act(ctx context.Context, revisionID string, req *ActionRequest, actor workflow.Actor) (*workflow.ActResult, error) {
	actReq := workflow.ActRequest{
		Action:           workflow.Action(strings.ToUpper(req.Action)),
		Comment:          req.Comment,
		ReturnToSequence: req.ReturnToSequence,
		ForwardToOrgID:   req.ForwardToOrgID,
	}

	result, err := s.engine.Act(ctx, revisionID, actReq, actor)
	if err != nil {
		return nil, err
	}

	// 记录审计日志
	// 详情走结构化序列化,评论中的引号等字符不会破坏 JSON
	if s.auditLogSvc != nil && actor.UserID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, strings.ToLower(string(actReq.Action)), "revision", revisionID, map[string]interface{}{
			"new_status":   result.NewStatus,
			"current_step": result.CurrentStep,
			"comment":      req.Comment,
		})
	}

	return result, nil
}

// CurrentAssignee 查询当前待处理步骤的受理方
func (s *workflowService) CurrentAssignee(ctx context.Context, revisionID string) (*workflow.Assignee, error) {
	return s.engine.GetCurrentAssignee(ctx, revisionID)
}

// History 查询修订版的路由历史
func (s *workflowService) History(ctx context.Context, revisionID string) ([]*model.RoutingInstanceModel, error) {
	return s.engine.History(ctx, revisionID)
}

// Close 行政关闭修订版
func (s *workflowService) Close(ctx context.Context, revisionID string, req *CloseRequest, actor workflow.Actor) error {
	if err := s.engine.Close(ctx, revisionID, req.Reason, actor); err != nil {
		return err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && actor.UserID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, actor.UserID, "close", "revision", revisionID, map[string]interface{}{
			"reason": req.Reason,
		})
	}

	return nil
}
