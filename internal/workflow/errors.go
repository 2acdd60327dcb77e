package workflow

import (
	"errors"
	"fmt"
)

// ErrAlreadyNumbered 修订版已签发过编号,编号只允许签发一次
var ErrAlreadyNumbered = errors.New("revision already numbered")

// ErrNoTemplate 文档类型没有可用的路由模板
var ErrNoTemplate = errors.New("no active routing template")

// ErrNoOpenStep 修订版当前没有待处理的路由步骤
var ErrNoOpenStep = errors.New("no open routing step")

// InvalidTransitionError 非法的工作流动作
// 属于调用方错误,按校验失败呈现给用户,不重试
type InvalidTransitionError struct {
	RevisionID string
	Status     string
	Action     string
	Reason     string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s for revision %s in status %s: %s",
			e.Action, e.RevisionID, e.Status, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s for revision %s in status %s",
		e.Action, e.RevisionID, e.Status)
}

// invalidTransition 构造非法转换错误
func invalidTransition(revisionID, status, action, reason string) error {
	return &InvalidTransitionError{
		RevisionID: revisionID,
		Status:     status,
		Action:     action,
		Reason:     reason,
	}
}
