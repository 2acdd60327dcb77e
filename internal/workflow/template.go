package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/peancharoen/lcbp3-sub002/internal/directory"
	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"gorm.io/gorm"
)

// ResolveActiveTemplate 解析文档类型的有效路由模板
// 项目级模板优先于全局模板,无匹配返回 ErrNoTemplate
func ResolveActiveTemplate(db *gorm.DB, documentTypeID string, projectID string) (*model.RoutingTemplateModel, error) {
	templates := repository.NewRoutingTemplateRepository(db)
	template, err := templates.FindActiveByType(documentTypeID, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: type=%s project=%s", ErrNoTemplate, documentTypeID, projectID)
	}
	if err != nil {
		return nil, err
	}
	return template, nil
}

// ValidateTemplate 校验路由模板
// 结构校验之外,逐步确认目标组织在目录中存在
func ValidateTemplate(ctx context.Context, dir directory.Directory, template *model.RoutingTemplateModel) error {
	if err := template.Validate(); err != nil {
		return err
	}
	for i := range template.Steps {
		step := &template.Steps[i]
		exists, err := dir.OrganizationExists(ctx, step.ToOrganizationID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("step %d references unknown organization %q", step.Sequence, step.ToOrganizationID)
		}
	}
	return nil
}
