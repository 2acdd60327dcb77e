package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// Render 将格式模板渲染为文档编号
// 同样的 (template, tokens, sequence) 输入总是产生同样的输出:
// 不读取时钟、不引入随机性,年份等上下文由 tokens 显式提供。
// {SEQ:n} 按宽度补零,序号超出宽度时自然溢出不截断。
// 未知令牌返回 UnresolvedTokenError,绝不原样输出占位符
func Render(template string, tokens map[string]string, sequence int64) (string, error) {
	var out strings.Builder
	rest := template

	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:start])
		rest = rest[start+1:]

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return "", &UnresolvedTokenError{Token: "{" + rest, Template: template}
		}
		token := rest[:end]
		rest = rest[end+1:]

		value, err := resolveToken(token, tokens, sequence, template)
		if err != nil {
			return "", err
		}
		out.WriteString(value)
	}
}

// resolveToken 解析单个令牌
func resolveToken(token string, tokens map[string]string, sequence int64, template string) (string, error) {
	if token == "SEQ" {
		return strconv.FormatInt(sequence, 10), nil
	}
	if width, ok := strings.CutPrefix(token, "SEQ:"); ok {
		n, err := strconv.Atoi(width)
		if err != nil || n <= 0 {
			return "", &UnresolvedTokenError{Token: token, Template: template}
		}
		return fmt.Sprintf("%0*d", n, sequence), nil
	}
	if value, ok := tokens[token]; ok {
		return value, nil
	}
	return "", &UnresolvedTokenError{Token: token, Template: template}
}

// buddhistEra 公历年份转佛历
func buddhistEra(year int) int {
	return year + 543
}

// StandardTokens 按年份与修订号构造标准令牌表
// 组织/项目等代码令牌由调用方补充。
// 年份统一补齐到四位再截取,短年份不会越界
func StandardTokens(year int, revision int) map[string]string {
	ce := fmt.Sprintf("%04d", year)
	be := fmt.Sprintf("%04d", buddhistEra(year))
	return map[string]string{
		"YYYY":    ce,              // 四位公历年
		"YEAR":    ce[len(ce)-2:], // 两位公历年
		"YEAR:BE": be[len(be)-2:], // 两位佛历年
		"REV":     strconv.Itoa(revision),
	}
}
