// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sop-assistant-api/pkg/metrics"
)

// Repository SOP 分片向量仓储
type Repository struct {
	client    *Client
	dimension int
}

// NewRepository 创建向量仓储
func NewRepository(client *Client, dimension int) *Repository {
	if dimension <= 0 {
		dimension = DefaultVectorDimension
	}
	return &Repository{client: client, dimension: dimension}
}

// CreateCollection 创建集合
func (r *Repository) CreateCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", CollectionSOPChunks)))
	defer span.End()

	schema := SOPChunksSchema(r.dimension)
	schema.CollectionName = r.client.CollectionName(CollectionSOPChunks)

	if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// CreateIndex 创建 HNSW 索引
func (r *Repository) CreateIndex(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", CollectionSOPChunks)))
	defer span.End()

	collName := r.client.CollectionName(CollectionSOPChunks)

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// EnsureCollection 确保集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	exists, err := r.client.HasCollection(ctx, CollectionSOPChunks)
	if err != nil {
		return err
	}
	if !exists {
		if err := r.CreateCollection(ctx); err != nil {
			return err
		}
		// 新建集合时创建索引；若失败，允许后续由运维介入。
		_ = r.CreateIndex(ctx)
	}

	return r.client.LoadCollection(ctx, CollectionSOPChunks)
}

// SearchResult 检索结果
type SearchResult struct {
	ID          string
	Score       float32
	Source      string
	Filename    string
	Link        string
	TextContent string
}

// Search 按向量检索分片，结果按相似度降序
func (r *Repository) Search(ctx context.Context, queryVector []float32, topK int) ([]*SearchResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", CollectionSOPChunks),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	collName := r.client.CollectionName(CollectionSOPChunks)

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	start := time.Now()
	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		[]string{"id", "source", "filename", "link", "text_content"},
		[]entity.Vector{entity.FloatVector(queryVector)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(CollectionSOPChunks).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(CollectionSOPChunks, "error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(CollectionSOPChunks, "success").Inc()

	var searchResults []*SearchResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			// COSINE 下 Milvus 返回的 score 即相似度
			sr := &SearchResult{
				Score: result.Scores[i],
			}

			if idCol, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				sr.ID = idCol.Data()[i]
			}
			if srcCol, ok := result.Fields.GetColumn("source").(*entity.ColumnVarChar); ok {
				sr.Source = srcCol.Data()[i]
			}
			if fileCol, ok := result.Fields.GetColumn("filename").(*entity.ColumnVarChar); ok {
				sr.Filename = fileCol.Data()[i]
			}
			if linkCol, ok := result.Fields.GetColumn("link").(*entity.ColumnVarChar); ok {
				sr.Link = linkCol.Data()[i]
			}
			if textCol, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				sr.TextContent = textCol.Data()[i]
			}

			searchResults = append(searchResults, sr)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(searchResults)))
	return searchResults, nil
}

// InsertChunks 插入文档分片
func (r *Repository) InsertChunks(ctx context.Context, chunks []*SOPChunk) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertChunks",
		trace.WithAttributes(
			attribute.String("collection", CollectionSOPChunks),
			attribute.Int("count", len(chunks)),
		))
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}

	collName := r.client.CollectionName(CollectionSOPChunks)

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	sources := make([]string, len(chunks))
	filenames := make([]string, len(chunks))
	chunkSeqs := make([]int64, len(chunks))
	links := make([]string, len(chunks))
	texts := make([]string, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		vectors[i] = chunk.Vector
		sources[i] = chunk.Source
		filenames[i] = chunk.Filename
		chunkSeqs[i] = chunk.ChunkSeq
		links[i] = chunk.Link
		texts[i] = chunk.TextContent
	}

	idCol := entity.NewColumnVarChar("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", r.dimension, vectors)
	sourceCol := entity.NewColumnVarChar("source", sources)
	fileCol := entity.NewColumnVarChar("filename", filenames)
	seqCol := entity.NewColumnInt64("chunk_seq", chunkSeqs)
	linkCol := entity.NewColumnVarChar("link", links)
	textCol := entity.NewColumnVarChar("text_content", texts)

	if _, err := r.client.milvus.Insert(ctx, collName, "",
		idCol, vectorCol, sourceCol, fileCol, seqCol, linkCol, textCol); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// DeleteBySource 删除某个文档的所有分片
func (r *Repository) DeleteBySource(ctx context.Context, source string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "milvus.DeleteBySource",
		trace.WithAttributes(attribute.String("source", source)))
	defer span.End()

	collName := r.client.CollectionName(CollectionSOPChunks)
	filter := fmt.Sprintf(`source == "%s"`, escapeExprString(source))

	if err := r.client.milvus.Delete(ctx, collName, "", filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// Count 集合内分片总数
func (r *Repository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return 0, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Count")
	defer span.End()

	collName := r.client.CollectionName(CollectionSOPChunks)
	stats, err := r.client.milvus.GetCollectionStatistics(ctx, collName)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}

	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count %q: %w", stats["row_count"], err)
	}
	return count, nil
}

// HasAny 集合是否已有任何分片
func (r *Repository) HasAny(ctx context.Context) (bool, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func escapeExprString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
