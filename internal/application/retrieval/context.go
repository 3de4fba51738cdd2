package retrieval

import (
	"fmt"
	"strings"
)

// contextSeparator 拼接上下文块的分隔符
const contextSeparator = "\n---\n"

// BuildPromptContext 将召回片段格式化为可直接注入 Prompt 的上下文块
// 每块标注来源文件名，块之间用分隔线隔开
func BuildPromptContext(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		content := strings.TrimSpace(p.Content)
		if content == "" {
			continue
		}
		name := strings.TrimSpace(p.DisplayName)
		if name == "" {
			name = p.SourceID
		}
		blocks = append(blocks, fmt.Sprintf("**From %s:**\n%s", name, content))
	}
	return strings.Join(blocks, contextSeparator)
}

// ExpansionNote 当使用了多个查询变体时生成提示说明，供回答模型理解检索范围
func ExpansionNote(result *Result) string {
	if result == nil || len(result.Variants) <= 1 {
		return ""
	}
	shown := result.Variants
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return fmt.Sprintf("Note: the search was expanded to include these query variations: %s",
		strings.Join(shown, "; "))
}

// SourceNames 返回去重后的来源显示名，保持首次出现顺序
func SourceNames(passages []Passage) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(passages))
	for _, p := range passages {
		name := strings.TrimSpace(p.DisplayName)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
