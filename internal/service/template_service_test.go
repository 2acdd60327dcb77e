package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/peancharoen/lcbp3-sub002/internal/directory"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/peancharoen/lcbp3-sub002/internal/service"
)

// setupTemplateService 创建路由模板服务测试环境
func setupTemplateService(t *testing.T) (service.TemplateService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.OrganizationModel{},
		&model.RoutingTemplateModel{},
		&model.RoutingTemplateStepModel{},
		&model.AuditLogModel{},
	)
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.OrganizationModel{ID: "org-csc", Code: "CSC", Name: "Supervision Consultant", CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&model.OrganizationModel{ID: "org-pwa", Code: "PWA", Name: "Port Works Authority", CreatedAt: time.Now()}).Error)

	templates := repository.NewRoutingTemplateRepository(db)
	audits := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	return service.NewTemplateService(templates, directory.NewGormDirectory(db), audits), db
}

func createTemplateRequest() *service.CreateTemplateRequest {
	return &service.CreateTemplateRequest{
		Name:           "RFA standard route",
		DocumentTypeID: "type-rfa",
		Steps: []service.TemplateStepRequest{
			{Sequence: 1, ToOrganizationID: "org-csc", ExpectedDays: 7},
			{Sequence: 2, ToOrganizationID: "org-pwa", Purpose: model.PurposeForApproval},
		},
	}
}

// TestTemplateService_Create 测试创建模板: 缺省值与步骤构造
func TestTemplateService_Create(t *testing.T) {
	svc, db := setupTemplateService(t)
	ctx := context.Background()

	template, err := svc.Create(ctx, createTemplateRequest(), "admin-1")
	require.NoError(t, err)
	assert.True(t, template.IsActive)
	require.Len(t, template.Steps, 2)
	// 未指定用途的步骤缺省为 FOR_REVIEW
	assert.Equal(t, model.PurposeForReview, template.Steps[0].Purpose)
	assert.Equal(t, model.PurposeForApproval, template.Steps[1].Purpose)

	fetched, err := svc.Get(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "RFA standard route", fetched.Name)
	assert.Len(t, fetched.Steps, 2)

	var audit model.AuditLogModel
	require.NoError(t, db.Where("resource_type = ?", "routing_template").First(&audit).Error)
	assert.Equal(t, "create", audit.Action)
}

// TestTemplateService_Create_Invalid 测试非法模板被拒绝落库
func TestTemplateService_Create_Invalid(t *testing.T) {
	svc, db := setupTemplateService(t)
	ctx := context.Background()

	// 空步骤
	req := createTemplateRequest()
	req.Steps = nil
	_, err := svc.Create(ctx, req, "admin-1")
	assert.Error(t, err)

	// 序号不递增
	req = createTemplateRequest()
	req.Steps[1].Sequence = 1
	_, err = svc.Create(ctx, req, "admin-1")
	assert.Error(t, err)

	// 未知组织
	req = createTemplateRequest()
	req.Steps[1].ToOrganizationID = "org-ghost"
	_, err = svc.Create(ctx, req, "admin-1")
	assert.Error(t, err)

	var count int64
	db.Model(&model.RoutingTemplateModel{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestTemplateService_Update 测试更新模板
func TestTemplateService_Update(t *testing.T) {
	svc, _ := setupTemplateService(t)
	ctx := context.Background()

	template, err := svc.Create(ctx, createTemplateRequest(), "admin-1")
	require.NoError(t, err)

	name := "RFA expedited route"
	inactive := false
	updated, err := svc.Update(ctx, template.ID, &service.UpdateTemplateRequest{
		Name:     &name,
		IsActive: &inactive,
	}, "admin-2")
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "admin-2", updated.UpdatedBy)
	// 未提供步骤时保留原步骤
	assert.Len(t, updated.Steps, 2)
}

// TestTemplateService_Delete 测试删除模板及其步骤
func TestTemplateService_Delete(t *testing.T) {
	svc, db := setupTemplateService(t)
	ctx := context.Background()

	template, err := svc.Create(ctx, createTemplateRequest(), "admin-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, template.ID, "admin-1"))

	_, err = svc.Get(ctx, template.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	var stepCount int64
	db.Model(&model.RoutingTemplateStepModel{}).Count(&stepCount)
	assert.Equal(t, int64(0), stepCount)

	err = svc.Delete(ctx, template.ID, "admin-1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
