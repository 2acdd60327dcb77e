package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/peancharoen/lcbp3-sub002/internal/service"
)

// NumberingController 编号签发控制器
type NumberingController struct {
	numberingService service.NumberingService
	formatService    service.FormatService
	auditRepo        repository.NumberAuditRepository
}

// NewNumberingController 创建编号签发控制器
func NewNumberingController(numberingService service.NumberingService, formatService service.FormatService, auditRepo repository.NumberAuditRepository) *NumberingController {
	return &NumberingController{
		numberingService: numberingService,
		formatService:    formatService,
		auditRepo:        auditRepo,
	}
}

// Issue 签发一个文档编号
// 面向不走路由的文档类型;走路由的类型在提交时自动取号
func (c *NumberingController) Issue(ctx *gin.Context) {
	var req service.IssueNumberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := ActorFromContext(ctx)
	resp, err := c.numberingService.Issue(ctx.Request.Context(), &req, actor.UserID)
	if err != nil {
		RespondError(ctx, err, "failed to issue number")
		return
	}

	Success(ctx, resp)
}

// Preview 预览下一个编号,不消耗序号
func (c *NumberingController) Preview(ctx *gin.Context) {
	var req service.IssueNumberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	resp, err := c.numberingService.Preview(ctx.Request.Context(), &req)
	if err != nil {
		RespondError(ctx, err, "failed to preview number")
		return
	}

	Success(ctx, resp)
}

// Override 人工覆写计数器
func (c *NumberingController) Override(ctx *gin.Context) {
	var req service.OverrideCounterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := ActorFromContext(ctx)
	if err := c.numberingService.Override(ctx.Request.Context(), &req, actor.UserID); err != nil {
		RespondError(ctx, err, "failed to override counter")
		return
	}

	Success(ctx, gin.H{"overridden": true})
}

// Audits 查询项目的编号审计记录
func (c *NumberingController) Audits(ctx *gin.Context) {
	projectID := ctx.Param("project_id")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	audits, err := c.auditRepo.FindByProject(projectID, limit)
	if err != nil {
		RespondError(ctx, err, "failed to list number audits")
		return
	}

	Success(ctx, audits)
}

// CreateFormat 创建编号格式
func (c *NumberingController) CreateFormat(ctx *gin.Context) {
	var req service.CreateFormatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := ActorFromContext(ctx)
	format, err := c.formatService.Create(ctx.Request.Context(), &req, actor.UserID)
	if err != nil {
		RespondError(ctx, err, "failed to create number format")
		return
	}

	Success(ctx, format)
}

// UpdateFormat 更新编号格式
func (c *NumberingController) UpdateFormat(ctx *gin.Context) {
	var req service.UpdateFormatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := ActorFromContext(ctx)
	format, err := c.formatService.Update(ctx.Request.Context(), ctx.Param("id"), &req, actor.UserID)
	if err != nil {
		RespondError(ctx, err, "failed to update number format")
		return
	}

	Success(ctx, format)
}

// DeleteFormat 删除编号格式
func (c *NumberingController) DeleteFormat(ctx *gin.Context) {
	actor := ActorFromContext(ctx)
	if err := c.formatService.Delete(ctx.Request.Context(), ctx.Param("id"), actor.UserID); err != nil {
		RespondError(ctx, err, "failed to delete number format")
		return
	}

	Success(ctx, gin.H{"deleted": true})
}

// ListFormats 列出项目的编号格式
func (c *NumberingController) ListFormats(ctx *gin.Context) {
	formats, err := c.formatService.ListByProject(ctx.Request.Context(), ctx.Param("project_id"))
	if err != nil {
		RespondError(ctx, err, "failed to list number formats")
		return
	}

	Success(ctx, formats)
}
