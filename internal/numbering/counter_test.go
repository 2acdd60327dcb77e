package numbering_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
)

// setupCounterDB 创建内存数据库
func setupCounterDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.NumberCounterModel{})
	require.NoError(t, err)
	return db
}

func testScopeKey(year int) numbering.ScopeKey {
	return numbering.ScopeKey{
		ProjectID:            "proj-1",
		OriginatorOrgID:      "org-csc",
		RecipientOrgID:       "org-pwa",
		CorrespondenceTypeID: "type-rfa",
		DisciplineID:         "disc-civil",
		ResetScope:           numbering.YearScope(year),
	}
}

// TestCounterStore_GetOrCreate 测试计数器首次访问时创建
func TestCounterStore_GetOrCreate(t *testing.T) {
	db := setupCounterDB(t)
	store := numbering.NewCounterStore(db)
	key := testScopeKey(2025)

	counter, err := store.GetOrCreate(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counter.LastNumber)
	assert.Equal(t, key.ProjectID, counter.ProjectID)

	// 再次获取返回同一行
	again, err := store.GetOrCreate(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, counter.ID, again.ID)

	var total int64
	db.Model(&model.NumberCounterModel{}).Count(&total)
	assert.Equal(t, int64(1), total)
}

// TestCounterStore_GetOrCreate_InvalidKey 测试缺少必填字段的作用域键
func TestCounterStore_GetOrCreate_InvalidKey(t *testing.T) {
	db := setupCounterDB(t)
	store := numbering.NewCounterStore(db)

	_, err := store.GetOrCreate(context.Background(), numbering.ScopeKey{})
	assert.Error(t, err)
}

// TestCounterStore_IncrementAndGet 测试序号逐一递增
func TestCounterStore_IncrementAndGet(t *testing.T) {
	db := setupCounterDB(t)
	store := numbering.NewCounterStore(db)
	key := testScopeKey(2025)

	for want := int64(1); want <= 5; want++ {
		got, err := store.IncrementAndGet(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	current, err := store.Current(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(5), current)
}

// TestCounterStore_IncrementAndGet_ScopeIsolation 测试不同作用域互不影响
func TestCounterStore_IncrementAndGet_ScopeIsolation(t *testing.T) {
	db := setupCounterDB(t)
	store := numbering.NewCounterStore(db)

	n2025, err := store.IncrementAndGet(context.Background(), testScopeKey(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n2025)

	// 跨年后作用域键变化,序号从 1 重新开始
	n2026, err := store.IncrementAndGet(context.Background(), testScopeKey(2026))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n2026)

	otherType := testScopeKey(2025)
	otherType.CorrespondenceTypeID = "type-letter"
	nOther, err := store.IncrementAndGet(context.Background(), otherType)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nOther)
}

// TestCounterStore_IncrementAndGet_VersionConflict 测试乐观锁版本冲突
func TestCounterStore_IncrementAndGet_VersionConflict(t *testing.T) {
	db := setupCounterDB(t)
	store := numbering.NewCounterStore(db)
	key := testScopeKey(2025)

	counter, err := store.GetOrCreate(context.Background(), key)
	require.NoError(t, err)

	// 模拟并发写入者抢先推进了版本号
	err = db.Model(&model.NumberCounterModel{}).
		Where("id = ?", counter.ID).
		Updates(map[string]interface{}{"version": counter.Version + 1, "updated_at": time.Now()}).Error
	require.NoError(t, err)

	// 本地 store 持有旧版本快照的场景: 直接构造过期更新验证冲突路径
	res := db.Model(&model.NumberCounterModel{}).
		Where("id = ? AND version = ?", counter.ID, counter.Version).
		Update("last_number", counter.LastNumber+1)
	require.NoError(t, res.Error)
	assert.Equal(t, int64(0), res.RowsAffected)

	// IncrementAndGet 每次重新读取,因此在无并发时仍能成功
	got, err := store.IncrementAndGet(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

// TestCounterStore_Current_Missing 测试不存在的计数器返回 0
func TestCounterStore_Current_Missing(t *testing.T) {
	db := setupCounterDB(t)
	store := numbering.NewCounterStore(db)

	current, err := store.Current(context.Background(), testScopeKey(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)
}

// TestCounterStore_Override 测试管理员覆写返回旧值并允许回拨
func TestCounterStore_Override(t *testing.T) {
	db := setupCounterDB(t)
	store := numbering.NewCounterStore(db)
	key := testScopeKey(2025)

	for i := 0; i < 10; i++ {
		_, err := store.IncrementAndGet(context.Background(), key)
		require.NoError(t, err)
	}

	old, err := store.Override(context.Background(), key, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10), old)

	// 覆写后从新值继续发号
	next, err := store.IncrementAndGet(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)
}

// TestScopeKey_LockKey 测试锁键包含全部作用域字段
func TestScopeKey_LockKey(t *testing.T) {
	key := testScopeKey(2025)
	lockKey := key.LockKey()

	assert.Contains(t, lockKey, "lock:docnum:")
	assert.Contains(t, lockKey, "proj-1")
	assert.Contains(t, lockKey, "YEAR_2025")
	assert.NotEqual(t, lockKey, testScopeKey(2026).LockKey())
}

// TestScopeKey_Validate 测试作用域键校验
func TestScopeKey_Validate(t *testing.T) {
	valid := testScopeKey(2025)
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.ProjectID = ""
	assert.Error(t, missing.Validate())

	missing = valid
	missing.CorrespondenceTypeID = ""
	assert.Error(t, missing.Validate())

	missing = valid
	missing.ResetScope = ""
	assert.Error(t, missing.Validate())
}
