package workflow

import (
	"context"
	"time"
)

// Action 工作流动作
type Action string

const (
	ActionApprove     Action = "APPROVE"
	ActionReject      Action = "REJECT"
	ActionReturn      Action = "RETURN"
	ActionForward     Action = "FORWARD"
	ActionAcknowledge Action = "ACKNOWLEDGE"
)

// Valid 判断动作是否合法
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionReturn, ActionForward, ActionAcknowledge:
		return true
	}
	return false
}

// Actor 操作人身份
// 身份鉴权由外部协作方完成,核心信任传入的已校验身份,
// 不读取任何环境态的"当前用户"
type Actor struct {
	UserID         string
	OrganizationID string
}

// Assignee 当前待处理步骤的受理方
type Assignee struct {
	OrganizationID string  `json:"organization_id"`
	RoleID         *string `json:"role_id,omitempty"`
}

// ActRequest 工作流动作请求
type ActRequest struct {
	Action           Action
	Comment          string
	ReturnToSequence int    // RETURN 的目标步骤序号
	ForwardToOrgID   string // FORWARD 的新目标组织
}

// SubmitResult 提交结果
type SubmitResult struct {
	DocumentNumber string `json:"document_number"`
	CurrentStep    int    `json:"current_step"`
}

// ActResult 动作结果
// 到达终态时 CurrentStep 为 0
type ActResult struct {
	NewStatus   string `json:"new_status"`
	CurrentStep int    `json:"current_step,omitempty"`
}

// RoutingCreatedEvent 新路由实例创建事件
type RoutingCreatedEvent struct {
	RevisionID       string     `json:"revision_id"`
	DocumentNumber   string     `json:"document_number,omitempty"`
	Sequence         int        `json:"sequence"`
	ToOrganizationID string     `json:"to_organization_id"`
	Purpose          string     `json:"purpose"`
	DueDate          *time.Time `json:"due_date,omitempty"`
}

// Dispatcher 新步骤受理方通知协作方
// 发后即忘: 通知失败不回滚工作流转换
type Dispatcher interface {
	RoutingCreated(ctx context.Context, evt RoutingCreatedEvent)
}
