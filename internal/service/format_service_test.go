package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/peancharoen/lcbp3-sub002/internal/service"
)

// setupFormatService 创建编号格式管理服务测试环境
func setupFormatService(t *testing.T) (service.FormatService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.NumberFormatModel{}, &model.AuditLogModel{})
	require.NoError(t, err)

	formats := repository.NewNumberFormatRepository(db)
	audits := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	return service.NewFormatService(formats, audits), db
}

// TestFormatService_Create 测试创建格式并写审计
func TestFormatService_Create(t *testing.T) {
	svc, db := setupFormatService(t)
	ctx := context.Background()

	format, err := svc.Create(ctx, &service.CreateFormatRequest{
		ProjectID:      "proj-1",
		FormatTemplate: "{ORG}-{RECIPIENT}-{SEQ:4}-{YEAR:BE}",
	}, "admin-1")
	require.NoError(t, err)
	assert.NotEmpty(t, format.ID)
	assert.True(t, format.ResetSequenceYearly)
	assert.True(t, format.IsActive)
	assert.Equal(t, "admin-1", format.CreatedBy)

	var audit model.AuditLogModel
	require.NoError(t, db.Where("resource_type = ?", "number_format").First(&audit).Error)
	assert.Equal(t, "create", audit.Action)
	assert.Equal(t, format.ID, audit.ResourceID)
}

// TestFormatService_Create_RejectsUnknownToken 测试保存时拦截未知令牌
// 配置错误在管理面当场暴露,而不是等到第一次签发
func TestFormatService_Create_RejectsUnknownToken(t *testing.T) {
	svc, db := setupFormatService(t)

	_, err := svc.Create(context.Background(), &service.CreateFormatRequest{
		ProjectID:      "proj-1",
		FormatTemplate: "{ORG}-{TYPO}-{SEQ:4}",
	}, "admin-1")
	require.Error(t, err)

	var unresolved *numbering.UnresolvedTokenError
	assert.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "TYPO", unresolved.Token)

	var count int64
	db.Model(&model.NumberFormatModel{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestFormatService_Update 测试更新格式与模板替换校验
func TestFormatService_Update(t *testing.T) {
	svc, _ := setupFormatService(t)
	ctx := context.Background()

	format, err := svc.Create(ctx, &service.CreateFormatRequest{
		ProjectID:      "proj-1",
		FormatTemplate: "{ORG}-{SEQ:4}",
	}, "admin-1")
	require.NoError(t, err)

	bad := "{BROKEN}"
	_, err = svc.Update(ctx, format.ID, &service.UpdateFormatRequest{FormatTemplate: &bad}, "admin-1")
	assert.Error(t, err)

	good := "{PROJECT}-{SEQ:5}"
	inactive := false
	updated, err := svc.Update(ctx, format.ID, &service.UpdateFormatRequest{
		FormatTemplate: &good,
		IsActive:       &inactive,
	}, "admin-2")
	require.NoError(t, err)
	assert.Equal(t, good, updated.FormatTemplate)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "admin-2", updated.UpdatedBy)
}

// TestFormatService_Delete 测试删除格式
func TestFormatService_Delete(t *testing.T) {
	svc, _ := setupFormatService(t)
	ctx := context.Background()

	format, err := svc.Create(ctx, &service.CreateFormatRequest{
		ProjectID:      "proj-1",
		FormatTemplate: "{ORG}-{SEQ:4}",
	}, "admin-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, format.ID, "admin-1"))

	listed, err := svc.ListByProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Empty(t, listed)

	// 重复删除报未找到
	err = svc.Delete(ctx, format.ID, "admin-1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
