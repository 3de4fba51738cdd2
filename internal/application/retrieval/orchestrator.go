package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"sop-assistant-api/internal/application/expansion"
	"sop-assistant-api/pkg/logger"
	"sop-assistant-api/pkg/metrics"
)

var tracer = otel.Tracer("application/retrieval")

// defaultBudget 调用方未指定预算时的兜底值
const defaultBudget = 5

// Orchestrator 多变体检索编排器
// 将问题扩展为查询变体，逐变体向量召回，按变体顺序合并去重，并按预算截断
type Orchestrator struct {
	expander *expansion.Expander
	embedder Embedder
	index    VectorIndex
	policy   Policy
}

// NewOrchestrator 创建检索编排器
func NewOrchestrator(expander *expansion.Expander, embedder Embedder, index VectorIndex, policy Policy) *Orchestrator {
	if expander == nil {
		expander = expansion.NewExpander(nil)
	}
	return &Orchestrator{
		expander: expander,
		embedder: embedder,
		index:    index,
		policy:   policy.normalized(),
	}
}

// Enabled 检索能力是否可用
func (o *Orchestrator) Enabled() bool {
	return o != nil && o.embedder != nil && o.index != nil
}

// Retrieve 为问题召回最终的文档片段集合
//
// 合并规则：按变体处理顺序合并各变体结果，SourceID 首次出现者胜出，
// 与各变体的完成顺序无关，因此并发召回不影响结果的确定性。
// 单个变体失败只会被跳过；所有变体都失败时返回 ErrRetrievalUnavailable。
func (o *Orchestrator) Retrieve(ctx context.Context, question string, budget int) (*Result, error) {
	ctx, span := tracer.Start(ctx, "retrieval.Retrieve")
	defer span.End()

	if !o.Enabled() {
		return nil, ErrVectorDisabled
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}
	if budget <= 0 {
		budget = defaultBudget
	}

	start := time.Now()

	variants := o.expander.Expand(question)
	if len(variants) > o.policy.MaxVariants {
		variants = variants[:o.policy.MaxVariants]
	}
	span.SetAttributes(
		attribute.Int("retrieval.variants", len(variants)),
		attribute.Int("retrieval.budget", budget),
	)
	metrics.RetrievalVariants.Observe(float64(len(variants)))

	perVariantK := o.policy.PerVariantK(budget)

	// 并发召回，结果写入各自槽位；合并阶段严格按变体顺序读取
	hits := make([][]*SearchHit, len(variants))
	errs := make([]error, len(variants))

	g := &errgroup.Group{}
	for i, variant := range variants {
		g.Go(func() error {
			vctx := ctx
			if o.policy.VariantTimeout > 0 {
				var cancel context.CancelFunc
				vctx, cancel = context.WithTimeout(ctx, o.policy.VariantTimeout)
				defer cancel()
			}
			hits[i], errs[i] = o.searchVariant(vctx, variant, perVariantK)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	failed := 0
	for i := range variants {
		if errs[i] != nil {
			failed++
			logger.Warn(ctx, "variant search failed, skipping",
				"variant", variants[i], "error", errs[i].Error())
		} else {
			succeeded++
		}
	}

	if succeeded == 0 {
		span.RecordError(ErrRetrievalUnavailable)
		metrics.RetrievalTotal.WithLabelValues("failed").Inc()
		metrics.RetrievalDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %d variants attempted", ErrRetrievalUnavailable, len(variants))
	}

	merged := mergePassages(hits)

	result := &Result{
		Variants:       variants,
		FailedVariants: failed,
	}

	// 合并为空时退回原问题直检
	if len(merged) == 0 {
		result.UsedFallback = true
		direct, err := o.searchVariant(ctx, question, perVariantK)
		if err != nil {
			logger.Warn(ctx, "fallback direct search failed", "error", err.Error())
		} else {
			merged = mergePassages([][]*SearchHit{direct})
		}
	}

	limit := o.policy.FinalLimit(budget)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	for i := range merged {
		merged[i].Rank = i
	}
	result.Passages = merged

	status := "ok"
	switch {
	case failed > 0:
		status = "partial"
	case result.UsedFallback:
		status = "fallback"
	}
	metrics.RetrievalTotal.WithLabelValues(status).Inc()
	metrics.RetrievalDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	metrics.RetrievalPassages.Observe(float64(len(merged)))

	logger.Debug(ctx, "retrieval completed",
		"variants", len(variants),
		"failed_variants", failed,
		"passages", len(merged),
		"fallback", result.UsedFallback,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// searchVariant 对单个变体执行 embedding + 向量检索
func (o *Orchestrator) searchVariant(ctx context.Context, variant string, topK int) ([]*SearchHit, error) {
	ctx, span := tracer.Start(ctx, "retrieval.searchVariant")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.top_k", topK))

	vec, err := o.embedder.EmbedOne(ctx, variant)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("embed variant: %w", err)
	}
	results, err := o.index.Search(ctx, vec, topK)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// mergePassages 按槽位顺序合并命中并按 SourceID 去重，首次出现者胜出
func mergePassages(hits [][]*SearchHit) []Passage {
	seen := make(map[string]struct{})
	merged := make([]Passage, 0, 32)
	for _, variantHits := range hits {
		for _, h := range variantHits {
			if h == nil || h.SourceID == "" {
				continue
			}
			if _, dup := seen[h.SourceID]; dup {
				continue
			}
			seen[h.SourceID] = struct{}{}
			merged = append(merged, Passage{
				SourceID:    h.SourceID,
				Content:     h.Content,
				DisplayName: h.Filename,
				Similarity:  float64(h.Score),
				Link:        h.Link,
			})
		}
	}
	return merged
}
