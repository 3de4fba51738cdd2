package retrieval

import "time"

// 检索策略默认值
const (
	defaultMaxVariants      = 8
	defaultPerVariantFactor = 3
	defaultPerVariantCap    = 100
	defaultFinalFactor      = 4
	defaultFinalCap         = 200

	defaultChunkSizeRunes    = 800
	defaultChunkOverlapRunes = 80
	defaultEmbeddingBatch    = 32
)

// Policy 检索预算策略，三个倍数/上限均为可配置的策略旋钮
type Policy struct {
	// MaxVariants 每次检索最多使用的查询变体数
	MaxVariants int
	// PerVariantFactor 单变体召回数 = budget * factor，封顶 PerVariantCap
	PerVariantFactor int
	PerVariantCap    int
	// FinalFactor 最终上下文条数 = budget * factor，封顶 FinalCap
	FinalFactor int
	FinalCap    int
	// VariantTimeout 单变体 embedding+search 的超时，0 表示跟随调用方 context
	VariantTimeout time.Duration
}

// DefaultPolicy 返回默认检索策略
func DefaultPolicy() Policy {
	return Policy{
		MaxVariants:      defaultMaxVariants,
		PerVariantFactor: defaultPerVariantFactor,
		PerVariantCap:    defaultPerVariantCap,
		FinalFactor:      defaultFinalFactor,
		FinalCap:         defaultFinalCap,
	}
}

// normalized 补齐零值字段
func (p Policy) normalized() Policy {
	if p.MaxVariants <= 0 {
		p.MaxVariants = defaultMaxVariants
	}
	if p.PerVariantFactor <= 0 {
		p.PerVariantFactor = defaultPerVariantFactor
	}
	if p.PerVariantCap <= 0 {
		p.PerVariantCap = defaultPerVariantCap
	}
	if p.FinalFactor <= 0 {
		p.FinalFactor = defaultFinalFactor
	}
	if p.FinalCap <= 0 {
		p.FinalCap = defaultFinalCap
	}
	return p
}

// PerVariantK 单变体最近邻召回数
func (p Policy) PerVariantK(budget int) int {
	k := budget * p.PerVariantFactor
	if k > p.PerVariantCap {
		k = p.PerVariantCap
	}
	if k <= 0 {
		k = p.PerVariantCap
	}
	return k
}

// FinalLimit 最终上下文条数上限
func (p Policy) FinalLimit(budget int) int {
	limit := budget * p.FinalFactor
	if limit > p.FinalCap {
		limit = p.FinalCap
	}
	if limit <= 0 {
		limit = p.FinalCap
	}
	return limit
}

// Passage 一条检索到的文档片段
type Passage struct {
	// SourceID 文档+分片的稳定标识，同一次检索内作为去重键
	SourceID    string  `json:"source_id"`
	Content     string  `json:"content"`
	DisplayName string  `json:"display_name"`
	Similarity  float64 `json:"similarity"`
	// Rank 在最终合并结果中的位置，从 0 开始
	Rank int    `json:"rank"`
	Link string `json:"link,omitempty"`
}

// Result 一次检索的完整输出
type Result struct {
	Passages []Passage `json:"passages"`
	// Variants 实际参与检索的查询变体，按处理顺序
	Variants []string `json:"variants"`
	// FailedVariants 检索失败被跳过的变体数
	FailedVariants int `json:"failed_variants,omitempty"`
	// UsedFallback 是否触发了原查询直检兜底
	UsedFallback bool `json:"used_fallback,omitempty"`
}
