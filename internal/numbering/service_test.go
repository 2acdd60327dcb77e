package numbering_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/peancharoen/lcbp3-sub002/internal/directory"
	"github.com/peancharoen/lcbp3-sub002/internal/lock"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
)

// numberingFixture 编号服务测试环境
type numberingFixture struct {
	db      *gorm.DB
	lockDB  *gorm.DB
	locks   lock.Manager
	service numbering.Service
}

// setupNumbering 创建编号服务测试环境
// 业务库限制单连接以串行化 sqlite 写入;锁表放在独立库,模拟独立的锁后端
func setupNumbering(t *testing.T) *numberingFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.ProjectModel{},
		&model.OrganizationModel{},
		&model.DisciplineModel{},
		&model.CorrespondenceTypeModel{},
		&model.NumberCounterModel{},
		&model.NumberFormatModel{},
		&model.NumberAuditModel{},
	)
	require.NoError(t, err)

	lockDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	lockSQL, err := lockDB.DB()
	require.NoError(t, err)
	lockSQL.SetMaxOpenConns(1)
	require.NoError(t, lockDB.AutoMigrate(&model.DistributedLockModel{}))

	testLogger := logrus.New()
	testLogger.SetLevel(logrus.ErrorLevel)

	locks := lock.NewGormManager(lockDB, lock.Options{
		Tries:       20,
		RetryDelay:  2 * time.Millisecond,
		RetryJitter: time.Millisecond,
	}, testLogger)

	resolver := numbering.NewResolver(numbering.DefaultFormatTemplate)
	svc := numbering.NewService(db, locks, resolver, directory.NewGormDirectory(db), 0, testLogger)

	seedMasterData(t, db)
	return &numberingFixture{db: db, lockDB: lockDB, locks: locks, service: svc}
}

// seedMasterData 预置主数据
func seedMasterData(t *testing.T, db *gorm.DB) {
	now := time.Now()
	require.NoError(t, db.Create(&model.ProjectModel{ID: "proj-1", Code: "LCBP3", Name: "Laem Chabang Phase 3", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.OrganizationModel{ID: "org-csc", Code: "CSC", Name: "Construction Supervision Consultant", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.OrganizationModel{ID: "org-pwa", Code: "PWA", Name: "Port Works Authority", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.DisciplineModel{ID: "disc-civil", Code: "CVL", Name: "Civil", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.CorrespondenceTypeModel{ID: "type-rfa", Code: "RFA", Name: "Request for Approval", RequiresNumbering: true, CreatedAt: now}).Error)
}

func issueContext() numbering.Context {
	return numbering.Context{
		ProjectID:            "proj-1",
		OriginatorOrgID:      "org-csc",
		RecipientOrgID:       "org-pwa",
		CorrespondenceTypeID: "type-rfa",
		DisciplineID:         "disc-civil",
		Year:                 2025,
	}
}

// TestService_IssueNumber 测试单次签发与审计
func TestService_IssueNumber(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	number, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	// 系统默认格式 {ORG}-{RECIPIENT}-{SEQ:4}-{YEAR:BE}
	assert.Equal(t, "CSC-PWA-0001-68", number)

	var audits []model.NumberAuditModel
	require.NoError(t, f.db.Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, model.NumberOperationGenerate, audits[0].Operation)
	assert.Equal(t, number, audits[0].GeneratedNumber)
	assert.Equal(t, "user-1", audits[0].ActorID)
	assert.True(t, audits[0].IsSuccess)

	// 锁在签发完成后已释放
	var lockRows int64
	f.lockDB.Model(&model.DistributedLockModel{}).Count(&lockRows)
	assert.Equal(t, int64(0), lockRows)
}

// TestService_IssueNumber_CustomFormat 测试项目自定义格式生效
func TestService_IssueNumber_CustomFormat(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()
	now := time.Now()

	typeID := "type-rfa"
	require.NoError(t, f.db.Create(&model.NumberFormatModel{
		ID:                   uuid.New().String(),
		ProjectID:            "proj-1",
		CorrespondenceTypeID: &typeID,
		FormatTemplate:       "{PROJECT}-{TYPE}-{DISCIPLINE}-{SEQ:3}-{YYYY}",
		ResetSequenceYearly:  true,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}).Error)

	number, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "LCBP3-RFA-CVL-001-2025", number)
}

// TestService_IssueNumber_ConcurrentContiguous 测试同作用域并发签发无重复无空洞
func TestService_IssueNumber_ConcurrentContiguous(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	const workers = 20
	numbers := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			numbers[idx], errs[idx] = f.service.IssueNumber(ctx, issueContext(), "user-1")
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		// CSC-PWA-0001-68 中的序号段
		parts := strings.Split(numbers[i], "-")
		require.Len(t, parts, 4)
		seq, err := strconv.Atoi(parts[2])
		require.NoError(t, err)
		assert.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}

	// 序号连续: 1..workers 全部出现
	for want := 1; want <= workers; want++ {
		assert.True(t, seen[want], "missing sequence %d", want)
	}
}

// TestService_Preview 测试预览不消耗序号不写审计
func TestService_Preview(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	number, next, err := f.service.Preview(ctx, issueContext())
	require.NoError(t, err)
	assert.Equal(t, "CSC-PWA-0001-68", number)
	assert.Equal(t, int64(1), next)

	// 重复预览返回同一个候选编号
	again, _, err := f.service.Preview(ctx, issueContext())
	require.NoError(t, err)
	assert.Equal(t, number, again)

	var auditCount int64
	f.db.Model(&model.NumberAuditModel{}).Count(&auditCount)
	assert.Equal(t, int64(0), auditCount)

	// 预览后实际签发得到的就是预览值
	issued, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, number, issued)
}

// TestService_YearRollover 测试跨年后序号从 1 重新开始
func TestService_YearRollover(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	first, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "CSC-PWA-0001-68", first)

	nextYear := issueContext()
	nextYear.Year = 2026
	rolled, err := f.service.IssueNumber(ctx, nextYear, "user-1")
	require.NoError(t, err)
	// 2026 + 543 = 2569,序号重新从 0001 开始
	assert.Equal(t, "CSC-PWA-0001-69", rolled)
}

// TestService_OverrideLastNumber 测试覆写后续号从新值继续且留有审计
func TestService_OverrideLastNumber(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
		require.NoError(t, err)
	}

	key := issueContext().ScopeKey(2025)
	err := f.service.OverrideLastNumber(ctx, key, 100, "migrated from legacy register", "admin-1")
	require.NoError(t, err)

	number, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "CSC-PWA-0101-68", number)

	var audit model.NumberAuditModel
	err = f.db.Where("operation = ?", model.NumberOperationOverride).First(&audit).Error
	require.NoError(t, err)
	require.NotNil(t, audit.OldValue)
	require.NotNil(t, audit.NewValue)
	assert.Equal(t, int64(5), *audit.OldValue)
	assert.Equal(t, int64(100), *audit.NewValue)
	assert.Equal(t, "migrated from legacy register", audit.Reason)
	assert.Equal(t, "admin-1", audit.ActorID)
}

// TestService_OverrideLastNumber_AllowsLowerValue 测试允许回拨纠错
func TestService_OverrideLastNumber_AllowsLowerValue(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
		require.NoError(t, err)
	}

	key := issueContext().ScopeKey(2025)
	require.NoError(t, f.service.OverrideLastNumber(ctx, key, 1, "void two numbers", "admin-1"))

	number, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "CSC-PWA-0002-68", number)
}

// TestService_OverrideLastNumber_RejectsNegative 测试拒绝负值
func TestService_OverrideLastNumber_RejectsNegative(t *testing.T) {
	f := setupNumbering(t)

	key := issueContext().ScopeKey(2025)
	err := f.service.OverrideLastNumber(context.Background(), key, -1, "bad", "admin-1")
	assert.Error(t, err)
}

// TestService_BadFormatDoesNotBurnNumber 测试格式含未知令牌时不消耗序号
func TestService_BadFormatDoesNotBurnNumber(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()
	now := time.Now()

	typeID := "type-rfa"
	require.NoError(t, f.db.Create(&model.NumberFormatModel{
		ID:                   uuid.New().String(),
		ProjectID:            "proj-1",
		CorrespondenceTypeID: &typeID,
		FormatTemplate:       "{ORG}-{NOPE}-{SEQ:4}",
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}).Error)

	_, err := f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.Error(t, err)
	var unresolved *numbering.UnresolvedTokenError
	assert.True(t, errors.As(err, &unresolved))

	// 渲染失败回滚了序号递增,修复格式后仍从 1 开始
	store := numbering.NewCounterStore(f.db)
	current, err := store.Current(ctx, issueContext().ScopeKey(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	// 失败审计异步落库
	var failure model.NumberAuditModel
	require.Eventually(t, func() bool {
		return f.db.Where("is_success = ?", false).First(&failure).Error == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, model.NumberOperationGenerate, failure.Operation)
	assert.Contains(t, failure.Reason, "NOPE")
}

// ttlRecordingManager 记录 Acquire 收到的 TTL 的锁管理器
type ttlRecordingManager struct {
	lock.Manager
	mu   sync.Mutex
	ttls []time.Duration
}

func (m *ttlRecordingManager) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Lock, error) {
	m.mu.Lock()
	m.ttls = append(m.ttls, ttl)
	m.mu.Unlock()
	return m.Manager.Acquire(ctx, key, ttl)
}

// TestService_ConfiguredLockTTL 测试配置的锁 TTL 传递到锁获取,0 回落默认值
func TestService_ConfiguredLockTTL(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()
	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)
	resolver := numbering.NewResolver(numbering.DefaultFormatTemplate)
	dir := directory.NewGormDirectory(f.db)

	rec := &ttlRecordingManager{Manager: f.locks}
	svc := numbering.NewService(f.db, rec, resolver, dir, 42*time.Second, quiet)
	_, err := svc.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	require.Len(t, rec.ttls, 1)
	assert.Equal(t, 42*time.Second, rec.ttls[0])

	fallback := &ttlRecordingManager{Manager: f.locks}
	svc = numbering.NewService(f.db, fallback, resolver, dir, 0, quiet)
	_, err = svc.IssueNumber(ctx, issueContext(), "user-1")
	require.NoError(t, err)
	require.Len(t, fallback.ttls, 1)
	assert.Equal(t, numbering.DefaultLockTTL, fallback.ttls[0])
}

// TestService_RejectsImplausibleYear 测试越界年份在签发与预览边界被拒绝
func TestService_RejectsImplausibleYear(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	bad := issueContext()
	bad.Year = 5
	_, err := f.service.IssueNumber(ctx, bad, "user-1")
	assert.True(t, errors.Is(err, numbering.ErrInvalidYear))
	_, _, err = f.service.Preview(ctx, bad)
	assert.True(t, errors.Is(err, numbering.ErrInvalidYear))

	bad.Year = 123456
	_, err = f.service.IssueNumber(ctx, bad, "user-1")
	assert.True(t, errors.Is(err, numbering.ErrInvalidYear))

	// 越界请求不留下计数器行
	var counters int64
	f.db.Model(&model.NumberCounterModel{}).Count(&counters)
	assert.Equal(t, int64(0), counters)
}

// TestService_LockTimeout 测试锁被占用时报 ErrLockTimeout
func TestService_LockTimeout(t *testing.T) {
	f := setupNumbering(t)
	ctx := context.Background()

	// 外部持有同一作用域的锁不放
	key := issueContext().ScopeKey(2025)
	quiet := logrus.New()
	quiet.SetLevel(logrus.ErrorLevel)
	blocker := lock.NewGormManager(f.lockDB, lock.Options{Tries: 1, RetryDelay: time.Millisecond}, quiet)
	held, err := blocker.Acquire(ctx, key.LockKey(), 30*time.Second)
	require.NoError(t, err)
	defer blocker.Release(ctx, held)

	_, err = f.service.IssueNumber(ctx, issueContext(), "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lock.ErrLockTimeout))
}
