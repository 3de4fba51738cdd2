// Package embedding 提供查询与文档的向量化实现
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/config"
	"sop-assistant-api/pkg/logger"
	"sop-assistant-api/pkg/metrics"
)

var tracer = otel.Tracer("infrastructure/embedding")

// QueryCache 查询向量缓存端口
type QueryCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// Provider 实现 retrieval.Embedder，负责批量切分、重试和查询向量缓存
// 上游故障统一标记为 TransientError，由检索编排层决定是否容忍
type Provider struct {
	inner embedding.Embedder
	cache QueryCache

	provider   string
	model      string
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	cacheTTL   time.Duration
}

// NewProvider 创建向量化服务，cache 可为 nil 表示不缓存查询向量
func NewProvider(inner embedding.Embedder, cache QueryCache, cfg *config.EmbeddingConfig) *Provider {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Provider{
		inner:      inner,
		cache:      cache,
		provider:   cfg.Provider,
		model:      cfg.Model,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		cacheTTL:   cacheTTL,
	}
}

// Embed 批量向量化，保持输入顺序
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := tracer.Start(ctx, "embedding.Embed",
		trace.WithAttributes(attribute.Int("embedding.texts", len(texts))))
	defer span.End()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += p.batchSize {
		end := i + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := p.embedBatch(ctx, texts[i:end])
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		all = append(all, vectors...)
	}
	return all, nil
}

// EmbedOne 向量化单条查询，带 Redis 缓存
func (p *Provider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if p.cache == nil {
		return p.embedOneDirect(ctx, text)
	}

	key := p.cacheKey(text)
	var loadErr error
	raw, err := p.cache.GetOrLoadSafe(ctx, key, p.cacheTTL, func() (interface{}, error) {
		vec, err := p.embedOneDirect(ctx, text)
		if err != nil {
			loadErr = err
		}
		return vec, err
	})
	if err != nil {
		if loadErr != nil {
			return nil, loadErr
		}
		// 缓存本身不可用时降级为直接向量化
		logger.Warn(ctx, "embedding cache unavailable, embedding directly",
			"key", key,
			"error", err.Error(),
		)
		return p.embedOneDirect(ctx, text)
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		logger.Warn(ctx, "corrupt cached embedding, recomputing",
			"key", key,
			"error", err.Error(),
		)
		return p.embedOneDirect(ctx, text)
	}
	return vector, nil
}

func (p *Provider) embedOneDirect(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embedBatch 单批调用，线性退避重试
func (p *Provider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &retrieval.TransientError{Err: ctx.Err()}
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			}
		}

		start := time.Now()
		raw, err := p.inner.EmbedStrings(ctx, texts)
		metrics.EmbeddingDuration.WithLabelValues(p.provider, p.model).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.EmbeddingTotal.WithLabelValues(p.provider, p.model, "error").Inc()
			lastErr = err
			logger.Warn(ctx, "embedding call failed",
				"attempt", attempt+1,
				"batch_size", len(texts),
				"error", err.Error(),
			)
			continue
		}
		if len(raw) != len(texts) {
			metrics.EmbeddingTotal.WithLabelValues(p.provider, p.model, "error").Inc()
			return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(raw), len(texts))
		}

		metrics.EmbeddingTotal.WithLabelValues(p.provider, p.model, "success").Inc()
		vectors := make([][]float32, len(raw))
		for i, v := range raw {
			vec := make([]float32, len(v))
			for j, f := range v {
				vec[j] = float32(f)
			}
			vectors[i] = vec
		}
		return vectors, nil
	}
	return nil, &retrieval.TransientError{Err: fmt.Errorf("embedding failed after %d attempts: %w", p.maxRetries+1, lastErr)}
}

func (p *Provider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(p.model + "\x00" + text))
	return "emb:q:" + hex.EncodeToString(sum[:])
}
