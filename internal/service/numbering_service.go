package service

import (
	"context"
	"time"

	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
)

// NumberingService 编号签发应用服务接口
// 为 API 层提供请求/响应形态,核心语义在 internal/numbering
type NumberingService interface {
	Issue(ctx context.Context, req *IssueNumberRequest, actorID string) (*IssueNumberResponse, error)
	Preview(ctx context.Context, req *IssueNumberRequest) (*PreviewNumberResponse, error)
	Override(ctx context.Context, req *OverrideCounterRequest, actorID string) error
}

// IssueNumberRequest 编号签发请求
type IssueNumberRequest struct {
	ProjectID            string `json:"project_id" binding:"required"`
	OriginatorOrgID      string `json:"originator_org_id" binding:"required"`
	RecipientOrgID       string `json:"recipient_org_id" binding:"required"`
	CorrespondenceTypeID string `json:"correspondence_type_id" binding:"required"`
	SubTypeID            string `json:"sub_type_id"`
	RFATypeID            string `json:"rfa_type_id"`
	DisciplineID         string `json:"discipline_id"`
	Year                 int    `json:"year"`     // 0 表示当前年
	Revision             int    `json:"revision"` // {REV} 令牌取值
}

// IssueNumberResponse 编号签发响应
type IssueNumberResponse struct {
	DocumentNumber string `json:"document_number"`
}

// PreviewNumberResponse 编号预览响应
// 只读预览,计数器不递增,同一编号之后仍可能被并发抢走
type PreviewNumberResponse struct {
	DocumentNumber string `json:"document_number"`
	NextSequence   int64  `json:"next_sequence"`
}

// OverrideCounterRequest 计数器人工覆写请求
type OverrideCounterRequest struct {
	IssueNumberRequest
	NewValue int64  `json:"new_value"`
	Reason   string `json:"reason" binding:"required"`
}

// numberingService 编号签发应用服务实现
type numberingService struct {
	core numbering.Service
}

// NewNumberingService 创建编号签发应用服务
func NewNumberingService(core numbering.Service) NumberingService {
	return &numberingService{core: core}
}

// toContext 请求转换为签发上下文
func (r *IssueNumberRequest) toContext() numbering.Context {
	return numbering.Context{
		ProjectID:            r.ProjectID,
		OriginatorOrgID:      r.OriginatorOrgID,
		RecipientOrgID:       r.RecipientOrgID,
		CorrespondenceTypeID: r.CorrespondenceTypeID,
		SubTypeID:            r.SubTypeID,
		RFATypeID:            r.RFATypeID,
		DisciplineID:         r.DisciplineID,
		Year:                 r.Year,
		Revision:             r.Revision,
	}
}

// Issue 签发一个文档编号
func (s *numberingService) Issue(ctx context.Context, req *IssueNumberRequest, actorID string) (*IssueNumberResponse, error) {
	number, err := s.core.IssueNumber(ctx, req.toContext(), actorID)
	if err != nil {
		return nil, err
	}
	return &IssueNumberResponse{DocumentNumber: number}, nil
}

// Preview 预览下一个编号
func (s *numberingService) Preview(ctx context.Context, req *IssueNumberRequest) (*PreviewNumberResponse, error) {
	number, next, err := s.core.Preview(ctx, req.toContext())
	if err != nil {
		return nil, err
	}
	return &PreviewNumberResponse{DocumentNumber: number, NextSequence: next}, nil
}

// Override 人工覆写计数器
func (s *numberingService) Override(ctx context.Context, req *OverrideCounterRequest, actorID string) error {
	nctx := req.toContext()
	year := nctx.Year
	if year == 0 {
		year = time.Now().Year()
	}
	return s.core.OverrideLastNumber(ctx, nctx.ScopeKey(year), req.NewValue, req.Reason, actorID)
}
