package numbering_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
)

// setupResolverDB 创建内存数据库
func setupResolverDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.NumberFormatModel{})
	require.NoError(t, err)
	return db
}

func seedFormat(t *testing.T, db *gorm.DB, projectID string, typeID *string, template string) {
	now := time.Now()
	err := db.Create(&model.NumberFormatModel{
		ID:                   uuid.New().String(),
		ProjectID:            projectID,
		CorrespondenceTypeID: typeID,
		FormatTemplate:       template,
		ResetSequenceYearly:  true,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}).Error
	require.NoError(t, err)
}

// TestResolver_TypeSpecificWins 测试类型专属格式优先于项目默认
func TestResolver_TypeSpecificWins(t *testing.T) {
	db := setupResolverDB(t)
	typeID := "type-rfa"
	seedFormat(t, db, "proj-1", nil, "{ORG}-{SEQ:4}")
	seedFormat(t, db, "proj-1", &typeID, "RFA-{SEQ:3}-{YEAR:BE}")

	resolver := numbering.NewResolver(numbering.DefaultFormatTemplate)
	template, err := resolver.ResolveTemplate(db, "proj-1", "type-rfa")
	require.NoError(t, err)
	assert.Equal(t, "RFA-{SEQ:3}-{YEAR:BE}", template)
}

// TestResolver_ProjectDefaultFallback 测试类型无专属格式时回退项目默认
func TestResolver_ProjectDefaultFallback(t *testing.T) {
	db := setupResolverDB(t)
	seedFormat(t, db, "proj-1", nil, "{ORG}-{SEQ:4}")

	resolver := numbering.NewResolver(numbering.DefaultFormatTemplate)
	template, err := resolver.ResolveTemplate(db, "proj-1", "type-letter")
	require.NoError(t, err)
	assert.Equal(t, "{ORG}-{SEQ:4}", template)
}

// TestResolver_SystemDefaultFallback 测试项目无任何格式时回退系统默认
func TestResolver_SystemDefaultFallback(t *testing.T) {
	db := setupResolverDB(t)

	resolver := numbering.NewResolver(numbering.DefaultFormatTemplate)
	template, err := resolver.ResolveTemplate(db, "proj-empty", "type-rfa")
	require.NoError(t, err)
	assert.Equal(t, numbering.DefaultFormatTemplate, template)
}

// TestResolver_NoTemplate 测试系统默认为空时报 ErrTemplateNotFound
func TestResolver_NoTemplate(t *testing.T) {
	db := setupResolverDB(t)

	resolver := numbering.NewResolver("")
	_, err := resolver.ResolveTemplate(db, "proj-empty", "type-rfa")
	require.Error(t, err)
	assert.True(t, errors.Is(err, numbering.ErrTemplateNotFound))
}

// TestResolver_InactiveFormatIgnored 测试停用的格式不参与解析
func TestResolver_InactiveFormatIgnored(t *testing.T) {
	db := setupResolverDB(t)
	typeID := "type-rfa"
	now := time.Now()
	err := db.Create(&model.NumberFormatModel{
		ID:                   uuid.New().String(),
		ProjectID:            "proj-1",
		CorrespondenceTypeID: &typeID,
		FormatTemplate:       "OLD-{SEQ:4}",
		IsActive:             false,
		CreatedAt:            now,
		UpdatedAt:            now,
	}).Error
	require.NoError(t, err)

	resolver := numbering.NewResolver(numbering.DefaultFormatTemplate)
	template, err := resolver.ResolveTemplate(db, "proj-1", "type-rfa")
	require.NoError(t, err)
	assert.Equal(t, numbering.DefaultFormatTemplate, template)
}
