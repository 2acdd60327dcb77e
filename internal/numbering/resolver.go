package numbering

import (
	"errors"
	"fmt"

	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"gorm.io/gorm"
)

// DefaultFormatTemplate 系统默认编号格式
const DefaultFormatTemplate = "{ORG}-{RECIPIENT}-{SEQ:4}-{YEAR:BE}"

// Resolver 编号格式解析器
// 解析顺序: 类型专属格式 → 项目默认格式 → 系统默认格式,先匹配先用。
// systemDefault 为空时两级回退落空返回 ErrTemplateNotFound
type Resolver struct {
	systemDefault string
}

// NewResolver 创建格式解析器
func NewResolver(systemDefault string) *Resolver {
	return &Resolver{systemDefault: systemDefault}
}

// ResolveTemplate 解析给定项目与文档类型应使用的格式模板
// 签发时对格式只读,格式的增删改属于管理面
func (r *Resolver) ResolveTemplate(db *gorm.DB, projectID string, correspondenceTypeID string) (string, error) {
	formats := repository.NewNumberFormatRepository(db)

	format, err := formats.FindByProjectAndType(projectID, correspondenceTypeID)
	if err == nil {
		return format.FormatTemplate, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("failed to resolve type format: %w", err)
	}

	format, err = formats.FindProjectDefault(projectID)
	if err == nil {
		return format.FormatTemplate, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("failed to resolve project default format: %w", err)
	}

	if r.systemDefault != "" {
		return r.systemDefault, nil
	}
	return "", fmt.Errorf("%w: project=%s type=%s", ErrTemplateNotFound, projectID, correspondenceTypeID)
}
