package api

import (
	"errors"
	"net/http"

	"github.com/peancharoen/lcbp3-sub002/internal/lock"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/peancharoen/lcbp3-sub002/internal/workflow"
	"github.com/gin-gonic/gin"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// mapDomainError 领域错误到 HTTP 状态码的映射
// 锁超时与持久化故障是可重试的 503,其余为调用方错误
func mapDomainError(err error) *APIError {
	var unresolved *numbering.UnresolvedTokenError
	var invalid *workflow.InvalidTransitionError
	var persistence *repository.PersistenceError

	switch {
	case errors.Is(err, lock.ErrLockTimeout):
		return &APIError{Code: http.StatusServiceUnavailable, Message: "numbering busy, retry later", Detail: err.Error()}
	case errors.As(err, &unresolved):
		return &APIError{Code: http.StatusUnprocessableEntity, Message: "number format contains an unresolvable token", Detail: err.Error()}
	case errors.Is(err, numbering.ErrInvalidYear):
		return &APIError{Code: http.StatusUnprocessableEntity, Message: "issue year out of range", Detail: err.Error()}
	case errors.Is(err, numbering.ErrTemplateNotFound):
		return &APIError{Code: http.StatusNotFound, Message: "no number format configured", Detail: err.Error()}
	case errors.Is(err, workflow.ErrAlreadyNumbered):
		return &APIError{Code: http.StatusConflict, Message: "revision already numbered", Detail: err.Error()}
	case errors.Is(err, workflow.ErrNoTemplate):
		return &APIError{Code: http.StatusNotFound, Message: "no active routing template", Detail: err.Error()}
	case errors.Is(err, workflow.ErrNoOpenStep):
		return &APIError{Code: http.StatusNotFound, Message: "no open routing step", Detail: err.Error()}
	case errors.As(err, &invalid):
		return &APIError{Code: http.StatusConflict, Message: "invalid workflow transition", Detail: err.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: http.StatusNotFound, Message: "resource not found", Detail: err.Error()}
	case errors.Is(err, numbering.ErrCounterConflict):
		return &APIError{Code: http.StatusServiceUnavailable, Message: "counter contention, retry later", Detail: err.Error()}
	case errors.As(err, &persistence):
		return &APIError{Code: http.StatusServiceUnavailable, Message: "storage unavailable, retry later", Detail: err.Error()}
	}
	return nil
}

// RespondError 按领域错误分类返回错误响应
func RespondError(c *gin.Context, err error, fallback string) {
	if apiErr := mapDomainError(err); apiErr != nil {
		Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
		return
	}
	Error(c, http.StatusInternalServerError, fallback, err.Error())
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
				return
			}
			if mapped := mapDomainError(err.Err); mapped != nil {
				Error(c, mapped.Code, mapped.Message, mapped.Detail)
				return
			}
			Error(c, http.StatusInternalServerError, "internal server error", err.Error())
		}
	}
}
