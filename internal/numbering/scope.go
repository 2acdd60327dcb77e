package numbering

import (
	"errors"
	"fmt"
)

// ScopeKey 编号计数器作用域键
// 每个不同的键对应一条独立计数器,互不干扰
type ScopeKey struct {
	ProjectID            string
	OriginatorOrgID      string
	RecipientOrgID       string
	CorrespondenceTypeID string
	SubTypeID            string
	RFATypeID            string
	DisciplineID         string
	ResetScope           string // 例如 YEAR_2025
}

// YearScope 构造按年重置的作用域标识
func YearScope(year int) string {
	return fmt.Sprintf("YEAR_%d", year)
}

// LockKey 构造该作用域对应的分布式锁键
func (k ScopeKey) LockKey() string {
	return fmt.Sprintf("lock:docnum:%s:%s:%s:%s:%s:%s:%s:%s",
		k.ProjectID, k.OriginatorOrgID, k.RecipientOrgID, k.CorrespondenceTypeID,
		k.SubTypeID, k.RFATypeID, k.DisciplineID, k.ResetScope)
}

// Validate 验证作用域键
func (k ScopeKey) Validate() error {
	if k.ProjectID == "" {
		return errors.New("scope key project ID is required")
	}
	if k.OriginatorOrgID == "" {
		return errors.New("scope key originator organization ID is required")
	}
	if k.CorrespondenceTypeID == "" {
		return errors.New("scope key correspondence type ID is required")
	}
	if k.ResetScope == "" {
		return errors.New("scope key reset scope is required")
	}
	return nil
}

// conditions 作用域键对应的查询条件
func (k ScopeKey) conditions() map[string]interface{} {
	return map[string]interface{}{
		"project_id":             k.ProjectID,
		"originator_org_id":      k.OriginatorOrgID,
		"recipient_org_id":       k.RecipientOrgID,
		"correspondence_type_id": k.CorrespondenceTypeID,
		"sub_type_id":            k.SubTypeID,
		"rfa_type_id":            k.RFATypeID,
		"discipline_id":          k.DisciplineID,
		"reset_scope":            k.ResetScope,
	}
}
