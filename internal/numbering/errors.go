package numbering

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound 没有匹配的有效编号格式,且未配置系统默认格式
// 属于配置错误,需要管理员处理
var ErrTemplateNotFound = errors.New("number format template not found")

// ErrInvalidYear 签发年份超出可信范围
// 年份来自外部请求,越界值会破坏 {YEAR} 类令牌的两位截取
var ErrInvalidYear = errors.New("issue year out of range")

// ErrCounterConflict 计数器乐观锁版本冲突
// 正常情况下签发受分布式锁保护不会发生,留作纵深防御,可重试
var ErrCounterConflict = errors.New("counter version conflict")

// UnresolvedTokenError 格式模板包含无法解析的令牌
// 文档编号是法定标识,绝不允许把字面占位符拼进编号,
// 因此这是致命的配置错误而不是可忽略的告警
type UnresolvedTokenError struct {
	Token    string
	Template string
}

func (e *UnresolvedTokenError) Error() string {
	return fmt.Sprintf("unresolved token %q in format template %q", e.Token, e.Template)
}
