package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/directory"
	"github.com/peancharoen/lcbp3-sub002/internal/metrics"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Engine 文档路由工作流状态机
// 驱动修订版沿路由模板流转: 提交、审批、拒绝、回退、转交。
// 一次动作的全部效果在同一个数据库事务内落库,
// 路由历史只追加,已终结的行不再改写
type Engine struct {
	db         *gorm.DB
	revisions  repository.RevisionRepository
	routings   repository.RoutingInstanceRepository
	templates  repository.RoutingTemplateRepository
	numbering  numbering.Service
	directory  directory.Directory
	dispatcher Dispatcher
	logger     *logrus.Logger
}

// NewEngine 创建工作流状态机
// dispatcher 可为 nil,此时不发送受理方通知
func NewEngine(db *gorm.DB, numberingSvc numbering.Service, dir directory.Directory, dispatcher Dispatcher, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		db:         db,
		revisions:  repository.NewRevisionRepository(db),
		routings:   repository.NewRoutingInstanceRepository(db),
		templates:  repository.NewRoutingTemplateRepository(db),
		numbering:  numberingSvc,
		directory:  dir,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Submit 提交修订版进入路由
// 仅允许 DRAFT(或编号已签发的 NUMBERED)状态提交。
// 编号签发、首步路由创建与状态转换在同一事务内完成,
// 任一环节失败则整体回滚,不留下半成品路由
func (e *Engine) Submit(ctx context.Context, revisionID string, templateID *string, actor Actor) (*SubmitResult, error) {
	var result SubmitResult
	var created *model.RoutingInstanceModel

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		revisions := e.revisions.WithTx(tx)
		routings := e.routings.WithTx(tx)

		revision, err := revisions.FindByID(revisionID)
		if err != nil {
			return err
		}

		switch revision.Status {
		case model.RevisionStatusDraft, model.RevisionStatusNumbered:
			// 允许提交
		default:
			if revision.DocumentNumber != nil {
				return ErrAlreadyNumbered
			}
			return invalidTransition(revisionID, revision.Status, "SUBMIT", "only draft revisions can be submitted")
		}

		template, err := e.resolveSubmitTemplate(tx, revision, templateID)
		if err != nil {
			return err
		}

		if err := e.ensureNumbered(ctx, tx, revision, actor); err != nil {
			return err
		}

		first := template.FirstStep()
		now := time.Now()
		instance := e.newInstance(revision, template.ID, first, fromOrgForSubmit(revision, actor), now)
		if err := routings.Create(instance); err != nil {
			return err
		}

		revision.Status = model.RevisionStatusInRouting
		revision.CurrentSequence = first.Sequence
		revision.RoutingTemplateID = &template.ID
		revision.SubmittedAt = &now
		revision.UpdatedAt = now
		if err := revisions.Save(revision); err != nil {
			return err
		}

		created = instance
		result = SubmitResult{CurrentStep: first.Sequence}
		if revision.DocumentNumber != nil {
			result.DocumentNumber = *revision.DocumentNumber
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordWorkflowTransition("submit")
	e.notifyCreated(ctx, result.DocumentNumber, created)
	e.logger.WithFields(logrus.Fields{
		"revision": revisionID,
		"number":   result.DocumentNumber,
		"step":     result.CurrentStep,
	}).Info("revision submitted into routing")
	return &result, nil
}

// Act 对当前路由步骤执行动作
func (e *Engine) Act(ctx context.Context, revisionID string, req ActRequest, actor Actor) (*ActResult, error) {
	if !req.Action.Valid() {
		return nil, invalidTransition(revisionID, "", string(req.Action), "unknown action")
	}

	var result ActResult
	var created *model.RoutingInstanceModel
	var documentNumber string

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		revisions := e.revisions.WithTx(tx)
		routings := e.routings.WithTx(tx)

		revision, err := revisions.FindByID(revisionID)
		if err != nil {
			return err
		}
		if revision.Status != model.RevisionStatusInRouting {
			return invalidTransition(revisionID, revision.Status, string(req.Action), "revision is not in routing")
		}
		if revision.DocumentNumber != nil {
			documentNumber = *revision.DocumentNumber
		}

		current, err := routings.FindOpenByRevision(revisionID)
		if errors.Is(err, repository.ErrNotFound) {
			return invalidTransition(revisionID, revision.Status, string(req.Action), "current step already processed")
		}
		if err != nil {
			return err
		}

		// 在途修订版始终沿用提交时捕获的模板,模板后续编辑不影响已开始的审批链
		if revision.RoutingTemplateID == nil {
			return invalidTransition(revisionID, revision.Status, string(req.Action), "revision has no captured routing template")
		}
		template, err := e.templates.WithTx(tx).FindByID(*revision.RoutingTemplateID)
		if err != nil {
			return err
		}

		now := time.Now()
		switch req.Action {
		case ActionApprove, ActionAcknowledge:
			created, err = e.approve(routings, revision, current, template, req, actor, now)
		case ActionReject:
			err = e.reject(routings, revision, current, req, actor, now)
		case ActionReturn:
			created, err = e.returnTo(routings, revision, current, template, req, actor, now)
		case ActionForward:
			err = e.forward(ctx, tx, routings, revision, current, req, now)
			created = nil
		}
		if err != nil {
			return err
		}

		revision.UpdatedAt = now
		if err := revisions.Save(revision); err != nil {
			return err
		}

		result = ActResult{NewStatus: revision.Status}
		if revision.Status == model.RevisionStatusInRouting {
			result.CurrentStep = revision.CurrentSequence
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordWorkflowTransition(strings.ToLower(string(req.Action)))
	e.notifyCreated(ctx, documentNumber, created)
	return &result, nil
}

// GetCurrentAssignee 返回当前 SENT 路由实例的受理方
// 供外部授权检查使用的只读投影
func (e *Engine) GetCurrentAssignee(ctx context.Context, revisionID string) (*Assignee, error) {
	if _, err := e.revisions.FindByID(revisionID); err != nil {
		return nil, err
	}
	instance, err := e.routings.FindOpenByRevision(revisionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoOpenStep
	}
	if err != nil {
		return nil, err
	}
	return &Assignee{
		OrganizationID: instance.ToOrganizationID,
		RoleID:         instance.RoleID,
	}, nil
}

// History 返回修订版的全部路由历史
func (e *Engine) History(ctx context.Context, revisionID string) ([]*model.RoutingInstanceModel, error) {
	if _, err := e.revisions.FindByID(revisionID); err != nil {
		return nil, err
	}
	return e.routings.FindByRevision(revisionID)
}

// Close 行政关闭修订版
// 在途的待处理步骤标记为 RETURNED,修订版进入 CLOSED 终态
func (e *Engine) Close(ctx context.Context, revisionID string, reason string, actor Actor) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		revisions := e.revisions.WithTx(tx)
		routings := e.routings.WithTx(tx)

		revision, err := revisions.FindByID(revisionID)
		if err != nil {
			return err
		}
		if model.IsTerminalStatus(revision.Status) {
			return invalidTransition(revisionID, revision.Status, "CLOSE", "revision already terminal")
		}

		now := time.Now()
		current, err := routings.FindOpenByRevision(revisionID)
		if err == nil {
			current.Status = model.RoutingStatusReturned
			current.Comment = reason
			current.ProcessedByUserID = &actor.UserID
			current.ProcessedAt = &now
			if err := routings.Update(current); err != nil {
				return err
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		revision.Status = model.RevisionStatusClosed
		revision.UpdatedAt = now
		return revisions.Save(revision)
	})
	if err != nil {
		return err
	}
	metrics.RecordWorkflowTransition("close")
	return nil
}

// approve 通过当前步骤: 最后一步到达 APPROVED 终态,否则开启下一步
func (e *Engine) approve(routings repository.RoutingInstanceRepository, revision *model.RevisionModel, current *model.RoutingInstanceModel, template *model.RoutingTemplateModel, req ActRequest, actor Actor, now time.Time) (*model.RoutingInstanceModel, error) {
	current.Status = model.RoutingStatusCompleted
	current.Comment = req.Comment
	current.ProcessedByUserID = &actor.UserID
	current.ProcessedAt = &now
	if err := routings.Update(current); err != nil {
		return nil, err
	}

	next := template.NextStepAfter(current.Sequence)
	if next == nil {
		revision.Status = model.RevisionStatusApproved
		return nil, nil
	}

	instance := e.newInstance(revision, template.ID, next, current.ToOrganizationID, now)
	if err := routings.Create(instance); err != nil {
		return nil, err
	}
	revision.CurrentSequence = next.Sequence
	return instance, nil
}

// reject 拒绝: 当前步骤与修订版同时进入终态,不再创建后续步骤
func (e *Engine) reject(routings repository.RoutingInstanceRepository, revision *model.RevisionModel, current *model.RoutingInstanceModel, req ActRequest, actor Actor, now time.Time) error {
	if req.Comment == "" {
		return invalidTransition(revision.ID, revision.Status, string(ActionReject), "comment is required")
	}
	current.Status = model.RoutingStatusRejected
	current.Comment = req.Comment
	current.ProcessedByUserID = &actor.UserID
	current.ProcessedAt = &now
	if err := routings.Update(current); err != nil {
		return err
	}
	revision.Status = model.RevisionStatusRejected
	return nil
}

// returnTo 回退到更早的步骤
// 历史行不改写: 当前行标记 RETURNED,在目标序号插入全新的 SENT 行
func (e *Engine) returnTo(routings repository.RoutingInstanceRepository, revision *model.RevisionModel, current *model.RoutingInstanceModel, template *model.RoutingTemplateModel, req ActRequest, actor Actor, now time.Time) (*model.RoutingInstanceModel, error) {
	target := req.ReturnToSequence
	if target <= 0 || target >= current.Sequence {
		return nil, invalidTransition(revision.ID, revision.Status, string(ActionReturn), "return target must precede the current step")
	}
	visited, err := routings.ExistsAtSequence(revision.ID, target)
	if err != nil {
		return nil, err
	}
	if !visited {
		return nil, invalidTransition(revision.ID, revision.Status, string(ActionReturn), "return target was never visited")
	}
	step := template.StepAt(target)
	if step == nil {
		return nil, invalidTransition(revision.ID, revision.Status, string(ActionReturn), "return target is not defined by the captured template")
	}

	current.Status = model.RoutingStatusReturned
	current.Comment = req.Comment
	current.ProcessedByUserID = &actor.UserID
	current.ProcessedAt = &now
	if err := routings.Update(current); err != nil {
		return nil, err
	}

	instance := e.newInstance(revision, template.ID, step, current.ToOrganizationID, now)
	if err := routings.Create(instance); err != nil {
		return nil, err
	}
	revision.CurrentSequence = step.Sequence
	return instance, nil
}

// forward 同一步骤内横向转交: 改写当前 SENT 行的目标组织,不推进序号
func (e *Engine) forward(ctx context.Context, tx *gorm.DB, routings repository.RoutingInstanceRepository, revision *model.RevisionModel, current *model.RoutingInstanceModel, req ActRequest, now time.Time) error {
	if req.ForwardToOrgID == "" {
		return invalidTransition(revision.ID, revision.Status, string(ActionForward), "forward target organization is required")
	}
	exists, err := e.directory.WithTx(tx).OrganizationExists(ctx, req.ForwardToOrgID)
	if err != nil {
		return err
	}
	if !exists {
		return invalidTransition(revision.ID, revision.Status, string(ActionForward), "forward target organization does not exist")
	}

	current.FromOrganizationID = current.ToOrganizationID
	current.ToOrganizationID = req.ForwardToOrgID
	if req.Comment != "" {
		current.Comment = req.Comment
	}
	return routings.Update(current)
}

// ensureNumbered 需要编号的文档类型在提交时签发编号,一次性写入修订版
func (e *Engine) ensureNumbered(ctx context.Context, tx *gorm.DB, revision *model.RevisionModel, actor Actor) error {
	if revision.DocumentNumber != nil {
		return nil
	}
	required, err := e.directory.WithTx(tx).TypeRequiresNumbering(ctx, revision.CorrespondenceTypeID)
	if err != nil {
		return err
	}
	if !required {
		return nil
	}

	number, err := e.numbering.IssueNumberIn(ctx, tx, numbering.Context{
		ProjectID:            revision.ProjectID,
		OriginatorOrgID:      revision.OriginatorOrgID,
		RecipientOrgID:       revision.RecipientOrgID,
		CorrespondenceTypeID: revision.CorrespondenceTypeID,
		DisciplineID:         revision.DisciplineID,
	}, actor.UserID)
	if err != nil {
		return err
	}
	revision.DocumentNumber = &number
	return nil
}

// resolveSubmitTemplate 解析提交使用的路由模板
func (e *Engine) resolveSubmitTemplate(tx *gorm.DB, revision *model.RevisionModel, templateID *string) (*model.RoutingTemplateModel, error) {
	if templateID != nil && *templateID != "" {
		template, err := e.templates.WithTx(tx).FindByID(*templateID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoTemplate
		}
		if err != nil {
			return nil, err
		}
		if !template.IsActive {
			return nil, ErrNoTemplate
		}
		if len(template.Steps) == 0 {
			return nil, ErrNoTemplate
		}
		return template, nil
	}
	template, err := ResolveActiveTemplate(tx, revision.CorrespondenceTypeID, revision.ProjectID)
	if err != nil {
		return nil, err
	}
	if len(template.Steps) == 0 {
		return nil, ErrNoTemplate
	}
	return template, nil
}

// newInstance 构造一条 SENT 路由实例
func (e *Engine) newInstance(revision *model.RevisionModel, templateID string, step *model.RoutingTemplateStepModel, fromOrgID string, now time.Time) *model.RoutingInstanceModel {
	instance := &model.RoutingInstanceModel{
		ID:                 uuid.New().String(),
		RevisionID:         revision.ID,
		TemplateID:         templateID,
		Sequence:           step.Sequence,
		FromOrganizationID: fromOrgID,
		ToOrganizationID:   step.ToOrganizationID,
		RoleID:             step.RoleID,
		Purpose:            step.Purpose,
		Status:             model.RoutingStatusSent,
		CreatedAt:          now,
	}
	if step.ExpectedDays > 0 {
		due := now.AddDate(0, 0, step.ExpectedDays)
		instance.DueDate = &due
	}
	return instance
}

// fromOrgForSubmit 首步的来源组织: 提交人组织,缺省回落到发起组织
func fromOrgForSubmit(revision *model.RevisionModel, actor Actor) string {
	if actor.OrganizationID != "" {
		return actor.OrganizationID
	}
	return revision.OriginatorOrgID
}

// notifyCreated 新步骤创建后的发后即忘通知
func (e *Engine) notifyCreated(ctx context.Context, documentNumber string, instance *model.RoutingInstanceModel) {
	if e.dispatcher == nil || instance == nil {
		return
	}
	e.dispatcher.RoutingCreated(ctx, RoutingCreatedEvent{
		RevisionID:       instance.RevisionID,
		DocumentNumber:   documentNumber,
		Sequence:         instance.Sequence,
		ToOrganizationID: instance.ToOrganizationID,
		Purpose:          instance.Purpose,
		DueDate:          instance.DueDate,
	})
}
