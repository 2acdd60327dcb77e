package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peancharoen/lcbp3-sub002/internal/workflow"
)

// 身份透传头
// 鉴权在上游网关完成,服务只消费网关注入的已校验身份
const (
	HeaderUserID         = "X-User-ID"
	HeaderOrganizationID = "X-Organization-ID"
)

// IdentityMiddleware 身份提取中间件
// 写操作缺少用户标识时直接拒绝
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		orgID := c.GetHeader(HeaderOrganizationID)
		c.Set("user_id", userID)
		c.Set("organization_id", orgID)

		if c.Request.Method != http.MethodGet && userID == "" {
			Error(c, http.StatusUnauthorized, "missing user identity", "X-User-ID header is required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext 从请求上下文取操作人身份
func ActorFromContext(c *gin.Context) workflow.Actor {
	return workflow.Actor{
		UserID:         c.GetString("user_id"),
		OrganizationID: c.GetString("organization_id"),
	}
}
