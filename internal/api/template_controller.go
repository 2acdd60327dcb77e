package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peancharoen/lcbp3-sub002/internal/service"
)

// TemplateController 路由模板控制器
type TemplateController struct {
	templateService service.TemplateService
}

// NewTemplateController 创建路由模板控制器
func NewTemplateController(templateService service.TemplateService) *TemplateController {
	return &TemplateController{
		templateService: templateService,
	}
}

// Create 创建路由模板
func (c *TemplateController) Create(ctx *gin.Context) {
	var req service.CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := ActorFromContext(ctx)
	template, err := c.templateService.Create(ctx.Request.Context(), &req, actor.UserID)
	if err != nil {
		RespondError(ctx, err, "failed to create template")
		return
	}

	Success(ctx, template)
}

// Get 获取路由模板
func (c *TemplateController) Get(ctx *gin.Context) {
	template, err := c.templateService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondError(ctx, err, "failed to get template")
		return
	}

	Success(ctx, template)
}

// List 列出全部路由模板
func (c *TemplateController) List(ctx *gin.Context) {
	templates, err := c.templateService.List(ctx.Request.Context())
	if err != nil {
		RespondError(ctx, err, "failed to list templates")
		return
	}

	Success(ctx, templates)
}

// Update 更新路由模板
// 不影响在途修订版,它们沿用提交时捕获的模板
func (c *TemplateController) Update(ctx *gin.Context) {
	var req service.UpdateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := ActorFromContext(ctx)
	template, err := c.templateService.Update(ctx.Request.Context(), ctx.Param("id"), &req, actor.UserID)
	if err != nil {
		RespondError(ctx, err, "failed to update template")
		return
	}

	Success(ctx, template)
}

// Delete 删除路由模板
func (c *TemplateController) Delete(ctx *gin.Context) {
	actor := ActorFromContext(ctx)
	if err := c.templateService.Delete(ctx.Request.Context(), ctx.Param("id"), actor.UserID); err != nil {
		RespondError(ctx, err, "failed to delete template")
		return
	}

	Success(ctx, gin.H{"deleted": true})
}
