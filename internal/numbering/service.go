package numbering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/peancharoen/lcbp3-sub002/internal/directory"
	"github.com/peancharoen/lcbp3-sub002/internal/lock"
	"github.com/peancharoen/lcbp3-sub002/internal/metrics"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/peancharoen/lcbp3-sub002/internal/retry"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultLockTTL 编号临界区的锁存活时间
const DefaultLockTTL = 5 * time.Second

// Context 编号签发上下文
type Context struct {
	ProjectID            string
	OriginatorOrgID      string
	RecipientOrgID       string
	CorrespondenceTypeID string
	SubTypeID            string
	RFATypeID            string
	DisciplineID         string
	Year                 int // 0 表示当前年
	Revision             int
}

// ScopeKey 按年度重置规则推导作用域键
func (c Context) ScopeKey(year int) ScopeKey {
	return ScopeKey{
		ProjectID:            c.ProjectID,
		OriginatorOrgID:      c.OriginatorOrgID,
		RecipientOrgID:       c.RecipientOrgID,
		CorrespondenceTypeID: c.CorrespondenceTypeID,
		SubTypeID:            c.SubTypeID,
		RFATypeID:            c.RFATypeID,
		DisciplineID:         c.DisciplineID,
		ResetScope:           YearScope(year),
	}
}

// Service 编号签发服务接口
// 独立于工作流使用: 不走路由的文档类型也通过 IssueNumber 取号
type Service interface {
	IssueNumber(ctx context.Context, nctx Context, actorID string) (string, error)
	IssueNumberIn(ctx context.Context, tx *gorm.DB, nctx Context, actorID string) (string, error)
	Preview(ctx context.Context, nctx Context) (string, int64, error)
	OverrideLastNumber(ctx context.Context, key ScopeKey, newValue int64, reason string, actorID string) error
}

// service 编号签发服务实现
type service struct {
	db        *gorm.DB
	locks     lock.Manager
	store     *CounterStore
	resolver  *Resolver
	directory directory.Directory
	auditRepo repository.NumberAuditRepository
	logger    *logrus.Logger
	lockTTL   time.Duration
}

// NewService 创建编号签发服务
// lockTTL 为 0 时使用 DefaultLockTTL
func NewService(db *gorm.DB, locks lock.Manager, resolver *Resolver, dir directory.Directory, lockTTL time.Duration, logger *logrus.Logger) Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &service{
		db:        db,
		locks:     locks,
		store:     NewCounterStore(db),
		resolver:  resolver,
		directory: dir,
		auditRepo: repository.NewNumberAuditRepository(db),
		logger:    logger,
		lockTTL:   lockTTL,
	}
}

// resolveYear 解析签发年份,0 回落到当前年
func resolveYear(requested int) (int, error) {
	year := requested
	if year == 0 {
		year = time.Now().Year()
	}
	if year < 1000 || year > 9999 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidYear, requested)
	}
	return year, nil
}

// incrementPolicy 计数器版本冲突的重试策略
var incrementPolicy = retry.Policy{
	MaxAttempts: 3,
	Backoff:     100 * time.Millisecond,
	Jitter:      50 * time.Millisecond,
	Retryable: func(err error) bool {
		return errors.Is(err, ErrCounterConflict)
	},
}

// IssueNumber 在独立事务中签发一个文档编号
func (s *service) IssueNumber(ctx context.Context, nctx Context, actorID string) (string, error) {
	var number string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		number, txErr = s.IssueNumberIn(ctx, tx, nctx, actorID)
		return txErr
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// IssueNumberIn 在调用方提供的事务中签发一个文档编号
// 锁定作用域 → 递增计数器 → 渲染编号 → 写审计,全程持有分布式锁;
// 锁在所有退出路径上都会被释放
func (s *service) IssueNumberIn(ctx context.Context, tx *gorm.DB, nctx Context, actorID string) (string, error) {
	year, err := resolveYear(nctx.Year)
	if err != nil {
		return "", err
	}
	key := nctx.ScopeKey(year)
	if err := key.Validate(); err != nil {
		return "", err
	}

	lockStart := time.Now()
	held, err := s.locks.Acquire(ctx, key.LockKey(), s.lockTTL)
	metrics.ObserveLockAcquire(time.Since(lockStart).Seconds())
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			metrics.RecordLockTimeout()
		}
		metrics.RecordNumberFailure()
		return "", err
	}
	defer func() {
		// 事务回滚或 panic 时同样释放,避免饿死同作用域的后续提交
		_ = s.locks.Release(context.WithoutCancel(ctx), held)
	}()

	number, err := s.issueLocked(ctx, tx, key, nctx, year, actorID)
	if err != nil {
		metrics.RecordNumberFailure()
		// 异步写入: 调用方事务尚未回滚,同步写会与其争用连接
		go s.recordFailureAudit(context.WithoutCancel(ctx), key, actorID, err)
		return "", err
	}

	metrics.RecordNumberIssued()
	return number, nil
}

// issueLocked 持锁状态下的签发临界区
func (s *service) issueLocked(ctx context.Context, tx *gorm.DB, key ScopeKey, nctx Context, year int, actorID string) (string, error) {
	// 先解析格式再递增,配置错误不烧号
	template, err := s.resolver.ResolveTemplate(tx, key.ProjectID, key.CorrespondenceTypeID)
	if err != nil {
		return "", err
	}

	store := s.store.WithTx(tx)
	var sequence int64
	err = incrementPolicy.Do(ctx, func() error {
		var incErr error
		sequence, incErr = store.IncrementAndGet(ctx, key)
		return incErr
	})
	if err != nil {
		return "", err
	}

	tokens, err := s.buildTokens(ctx, s.directory.WithTx(tx), nctx, year)
	if err != nil {
		return "", err
	}
	number, err := Render(template, tokens, sequence)
	if err != nil {
		return "", err
	}

	keyJSON, _ := json.Marshal(key)
	audit := &model.NumberAuditModel{
		ID:              uuid.New().String(),
		Operation:       model.NumberOperationGenerate,
		ProjectID:       key.ProjectID,
		CounterKey:      keyJSON,
		GeneratedNumber: number,
		ActorID:         actorID,
		IsSuccess:       true,
		CreatedAt:       time.Now(),
	}
	if err := s.auditRepo.WithTx(tx).Save(audit); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"number":   number,
		"sequence": sequence,
		"scope":    key.LockKey(),
	}).Info("issued document number")
	return number, nil
}

// Preview 预览下一个编号,不递增计数器也不写审计
func (s *service) Preview(ctx context.Context, nctx Context) (string, int64, error) {
	year, err := resolveYear(nctx.Year)
	if err != nil {
		return "", 0, err
	}
	key := nctx.ScopeKey(year)
	if err := key.Validate(); err != nil {
		return "", 0, err
	}

	template, err := s.resolver.ResolveTemplate(s.db.WithContext(ctx), key.ProjectID, key.CorrespondenceTypeID)
	if err != nil {
		return "", 0, err
	}
	current, err := s.store.Current(ctx, key)
	if err != nil {
		return "", 0, err
	}
	next := current + 1

	tokens, err := s.buildTokens(ctx, s.directory, nctx, year)
	if err != nil {
		return "", 0, err
	}
	number, err := Render(template, tokens, next)
	if err != nil {
		return "", 0, err
	}
	return number, next, nil
}

// OverrideLastNumber 管理员覆写计数器当前值
// 允许低于当前值,必须写前后值与原因的审计记录
func (s *service) OverrideLastNumber(ctx context.Context, key ScopeKey, newValue int64, reason string, actorID string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if newValue < 0 {
		return fmt.Errorf("override value must not be negative")
	}

	held, err := s.locks.Acquire(ctx, key.LockKey(), s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			metrics.RecordLockTimeout()
		}
		return err
	}
	defer func() {
		_ = s.locks.Release(context.WithoutCancel(ctx), held)
	}()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := s.store.WithTx(tx).Override(ctx, key, newValue)
		if err != nil {
			return err
		}

		keyJSON, _ := json.Marshal(key)
		audit := &model.NumberAuditModel{
			ID:         uuid.New().String(),
			Operation:  model.NumberOperationOverride,
			ProjectID:  key.ProjectID,
			CounterKey: keyJSON,
			OldValue:   &old,
			NewValue:   &newValue,
			Reason:     reason,
			ActorID:    actorID,
			IsSuccess:  true,
			CreatedAt:  time.Now(),
		}
		if err := s.auditRepo.WithTx(tx).Save(audit); err != nil {
			return err
		}

		s.logger.WithFields(logrus.Fields{
			"scope": key.LockKey(),
			"old":   old,
			"new":   newValue,
			"actor": actorID,
		}).Warn("counter manually overridden")
		return nil
	})
}

// buildTokens 组装渲染令牌表,代码查询交给目录协作方
func (s *service) buildTokens(ctx context.Context, dir directory.Directory, nctx Context, year int) (map[string]string, error) {
	tokens := StandardTokens(year, nctx.Revision)

	projectCode, err := dir.ProjectCode(ctx, nctx.ProjectID)
	if err != nil {
		return nil, err
	}
	typeCode, err := dir.TypeCode(ctx, nctx.CorrespondenceTypeID)
	if err != nil {
		return nil, err
	}
	orgCode, err := dir.OrganizationCode(ctx, nctx.OriginatorOrgID)
	if err != nil {
		return nil, err
	}
	recipientCode, err := dir.OrganizationCode(ctx, nctx.RecipientOrgID)
	if err != nil {
		return nil, err
	}
	disciplineCode, err := dir.DisciplineCode(ctx, nctx.DisciplineID)
	if err != nil {
		return nil, err
	}

	tokens["PROJECT"] = projectCode
	tokens["TYPE"] = typeCode
	tokens["ORG"] = orgCode
	tokens["RECIPIENT"] = recipientCode
	tokens["DISCIPLINE"] = disciplineCode
	return tokens, nil
}

// recordFailureAudit 失败审计尽力而为,不影响主错误传播
func (s *service) recordFailureAudit(ctx context.Context, key ScopeKey, actorID string, cause error) {
	keyJSON, _ := json.Marshal(key)
	audit := &model.NumberAuditModel{
		ID:         uuid.New().String(),
		Operation:  model.NumberOperationGenerate,
		ProjectID:  key.ProjectID,
		CounterKey: keyJSON,
		Reason:     cause.Error(),
		ActorID:    actorID,
		IsSuccess:  false,
		CreatedAt:  time.Now(),
	}
	if err := s.auditRepo.Save(audit); err != nil {
		s.logger.WithError(err).Warn("failed to record numbering failure audit")
	}
}
