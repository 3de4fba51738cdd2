package expansion

import (
	"strings"
)

const (
	// maxCrossProductWords 超过该词数不做逐词组合扩展，防止组合爆炸
	maxCrossProductWords = 3
	// maxCombinations 逐词组合扩展最多保留的组合数
	maxCombinations = 10
)

// Expander 将用户查询扩展为一组检索变体
type Expander struct {
	table *Table
}

// NewExpander 创建查询扩展器
func NewExpander(table *Table) *Expander {
	if table == nil {
		table = DefaultTable()
	}
	return &Expander{table: table}
}

// Expand 扩展查询，返回去重后的变体列表
// 原始查询始终作为第一个元素返回，任何查询至少返回自身
func (e *Expander) Expand(query string) []string {
	seen := make(map[string]struct{})
	variants := make([]string, 0, 16)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	// 原始查询无条件作为第一个变体，空串也不例外
	seen[query] = struct{}{}
	variants = append(variants, query)

	lowered := strings.ToLower(strings.TrimSpace(query))
	words := strings.Fields(lowered)
	if len(words) == 0 {
		return variants
	}

	// 逐词收集候选替换，原词始终排在候选首位
	candidates := make([][]string, len(words))
	for i, word := range words {
		c := make([]string, 0, 4)
		c = append(c, word)
		c = append(c, e.table.Forward(word)...)
		c = append(c, e.table.Reverse(word)...)
		candidates[i] = c
	}

	// 短查询做逐词组合扩展
	if len(words) <= maxCrossProductWords {
		for _, combo := range crossProduct(candidates, maxCombinations) {
			add(strings.Join(combo, " "))
		}
	}

	// 整个查询本身是缩写键
	for _, full := range e.table.Forward(lowered) {
		add(full)
	}

	// 首字母缩写匹配：去掉键中的 & 和 / 后逐字母对齐查询词首
	for _, key := range e.table.Keys() {
		letters := initialismLetters(key)
		if len(letters) != len(words) {
			continue
		}
		matched := true
		for i, word := range words {
			if !strings.HasPrefix(word, string(letters[i])) {
				matched = false
				break
			}
		}
		if matched {
			for _, full := range e.table.Forward(key) {
				add(full)
			}
		}
	}

	return variants
}

// crossProduct 枚举逐词候选的笛卡尔积，最多返回 limit 个组合
// 枚举顺序为里程计式，末位变化最快，因此首个组合即各位置原词
func crossProduct(candidates [][]string, limit int) [][]string {
	if len(candidates) == 0 {
		return nil
	}
	total := 1
	for _, c := range candidates {
		if len(c) == 0 {
			return nil
		}
		total *= len(c)
		if total > limit {
			total = limit
			break
		}
	}

	result := make([][]string, 0, total)
	indexes := make([]int, len(candidates))
	for len(result) < limit {
		combo := make([]string, len(candidates))
		for i, idx := range indexes {
			combo[i] = candidates[i][idx]
		}
		result = append(result, combo)

		// 进位
		pos := len(indexes) - 1
		for pos >= 0 {
			indexes[pos]++
			if indexes[pos] < len(candidates[pos]) {
				break
			}
			indexes[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return result
}

// initialismLetters 提取缩写键的字母序列，忽略 & 和 /
func initialismLetters(key string) []rune {
	letters := make([]rune, 0, len(key))
	for _, r := range key {
		if r == '&' || r == '/' {
			continue
		}
		letters = append(letters, r)
	}
	return letters
}
