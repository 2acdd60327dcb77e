package notify

import (
	"context"
	"encoding/json"

	"github.com/peancharoen/lcbp3-sub002/internal/workflow"
	"github.com/sirupsen/logrus"
)

// 通知消息类型
const (
	MessageTypeRoutingAssigned = "routing_assigned"
)

// Message 推送给客户端的通知消息
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// dispatcher 基于 WebSocket Hub 的通知分发器
// 发后即忘: 序列化或投递失败只记日志,不影响工作流转换
type dispatcher struct {
	hub    *Hub
	logger *logrus.Logger
}

// NewDispatcher 创建通知分发器
func NewDispatcher(hub *Hub, logger *logrus.Logger) workflow.Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &dispatcher{
		hub:    hub,
		logger: logger,
	}
}

// RoutingCreated 新路由步骤创建通知
func (d *dispatcher) RoutingCreated(ctx context.Context, evt workflow.RoutingCreatedEvent) {
	payload, err := json.Marshal(Message{
		Type:    MessageTypeRoutingAssigned,
		Payload: evt,
	})
	if err != nil {
		d.logger.WithError(err).Warn("failed to marshal routing notification")
		return
	}
	d.hub.BroadcastToOrganization(evt.ToOrganizationID, payload)
}
