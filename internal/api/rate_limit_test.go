package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/peancharoen/lcbp3-sub002/internal/api"
)

// rateLimitedRouter 挂载限流中间件的最小路由
func rateLimitedRouter(limiter *rate.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(api.RateLimitMiddleware(limiter))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func ping(router *gin.Engine) int {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return rec.Code
}

// TestRateLimitMiddleware_RejectsBeyondBurst 测试超过突发额度返回 429
func TestRateLimitMiddleware_RejectsBeyondBurst(t *testing.T) {
	limiter := api.NewRateLimiter(1, 1)
	router := rateLimitedRouter(limiter)

	assert.Equal(t, http.StatusOK, ping(router))
	assert.Equal(t, http.StatusTooManyRequests, ping(router))
}

// TestRateLimitMiddleware_ReconfiguredAtRuntime 测试运行中调大限流参数立即生效
func TestRateLimitMiddleware_ReconfiguredAtRuntime(t *testing.T) {
	limiter := api.NewRateLimiter(1, 1)
	router := rateLimitedRouter(limiter)

	assert.Equal(t, http.StatusOK, ping(router))
	assert.Equal(t, http.StatusTooManyRequests, ping(router))

	// 配置热更新路径: 不重建中间件,直接调整限流器
	limiter.SetLimit(rate.Limit(1000))
	limiter.SetBurst(100)

	assert.Equal(t, http.StatusOK, ping(router))
	assert.Equal(t, http.StatusOK, ping(router))
}
