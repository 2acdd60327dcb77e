package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peancharoen/lcbp3-sub002/internal/service"
)

// RevisionController 修订版与工作流控制器
type RevisionController struct {
	revisionService service.RevisionService
	workflowService service.WorkflowService
}

// NewRevisionController 创建修订版控制器
func NewRevisionController(revisionService service.RevisionService, workflowService service.WorkflowService) *RevisionController {
	return &RevisionController{
		revisionService: revisionService,
		workflowService: workflowService,
	}
}

// Create 创建修订版草稿
func (c *RevisionController) Create(ctx *gin.Context) {
	var req service.CreateRevisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := ActorFromContext(ctx)
	revision, err := c.revisionService.CreateDraft(ctx.Request.Context(), &req, actor.UserID)
	if err != nil {
		RespondError(ctx, err, "failed to create revision")
		return
	}

	Success(ctx, revision)
}

// Get 获取修订版详情
func (c *RevisionController) Get(ctx *gin.Context) {
	revision, err := c.revisionService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err, "failed to get revision")
		return
	}

	Success(ctx, revision)
}

// Submit 提交修订版进入路由
// 编号签发与首步路由在服务端同一事务内完成
func (c *RevisionController) Submit(ctx *gin.Context) {
	var req service.SubmitRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	result, err := c.workflowService.Submit(ctx.Request.Context(), ctx.Param("id"), &req, ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err, "failed to submit revision")
		return
	}

	Success(ctx, result)
}

// Act 对当前路由步骤执行动作
func (c *RevisionController) Act(ctx *gin.Context) {
	var req service.ActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.workflowService.Act(ctx.Request.Context(), ctx.Param("id"), &req, ActorFromContext(ctx))
	if err != nil {
		RespondError(ctx, err, "failed to process action")
		return
	}

	Success(ctx, result)
}

// Assignee 查询当前待处理步骤的受理方
func (c *RevisionController) Assignee(ctx *gin.Context) {
	assignee, err := c.workflowService.CurrentAssignee(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err, "failed to get assignee")
		return
	}

	Success(ctx, assignee)
}

// History 查询路由历史
func (c *RevisionController) History(ctx *gin.Context) {
	history, err := c.workflowService.History(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err, "failed to get routing history")
		return
	}

	Success(ctx, history)
}

// Close 行政关闭修订版
func (c *RevisionController) Close(ctx *gin.Context) {
	var req service.CloseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := c.workflowService.Close(ctx.Request.Context(), ctx.Param("id"), &req, ActorFromContext(ctx)); err != nil {
		RespondError(ctx, err, "failed to close revision")
		return
	}

	Success(ctx, gin.H{"closed": true})
}
