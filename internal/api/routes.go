package api

import (
	"github.com/gin-gonic/gin"
	"github.com/peancharoen/lcbp3-sub002/internal/notify"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Hub         *notify.Hub
	Revisions   *RevisionController
	Numbering   *NumberingController
	Templates   *TemplateController
	CORSOrigins []string
	RateLimiter *rate.Limiter // 为空时不启用限流
	Tracing     bool
}

// SetupRoutes 配置路由
func SetupRoutes(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	if len(deps.CORSOrigins) > 0 {
		router.Use(CORSMiddleware(deps.CORSOrigins))
	}
	if deps.RateLimiter != nil {
		router.Use(RateLimitMiddleware(deps.RateLimiter))
	}
	if deps.Tracing {
		router.Use(TracingMiddleware())
	}

	// 健康检查
	healthController := NewHealthController(deps.DB, deps.Redis)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 通知接入
	if deps.Hub != nil {
		router.GET("/ws/notifications", notify.Handler(deps.Hub))
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware())
	{
		// 修订版与工作流路由
		revisions := v1.Group("/revisions")
		{
			revisions.POST("", deps.Revisions.Create)
			revisions.GET("/:id", deps.Revisions.Get)
			revisions.POST("/:id/submit", deps.Revisions.Submit)
			revisions.POST("/:id/actions", deps.Revisions.Act)
			revisions.GET("/:id/assignee", deps.Revisions.Assignee)
			revisions.GET("/:id/history", deps.Revisions.History)
			revisions.POST("/:id/close", deps.Revisions.Close)
		}

		// 编号签发路由
		numbers := v1.Group("/numbers")
		{
			numbers.POST("/issue", deps.Numbering.Issue)
			numbers.POST("/preview", deps.Numbering.Preview)
			numbers.POST("/override", deps.Numbering.Override)
			numbers.GET("/audits/:project_id", deps.Numbering.Audits)
		}

		// 编号格式管理路由
		formats := v1.Group("/number-formats")
		{
			formats.POST("", deps.Numbering.CreateFormat)
			formats.GET("/project/:project_id", deps.Numbering.ListFormats)
			formats.PUT("/:id", deps.Numbering.UpdateFormat)
			formats.DELETE("/:id", deps.Numbering.DeleteFormat)
		}

		// 路由模板管理路由
		templates := v1.Group("/routing-templates")
		{
			templates.POST("", deps.Templates.Create)
			templates.GET("", deps.Templates.List)
			templates.GET("/:id", deps.Templates.Get)
			templates.PUT("/:id", deps.Templates.Update)
			templates.DELETE("/:id", deps.Templates.Delete)
		}
	}

	return router
}
