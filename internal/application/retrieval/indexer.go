package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"sop-assistant-api/pkg/logger"
	"sop-assistant-api/pkg/metrics"
)

// Indexer 将文档切分、向量化并写入向量索引
type Indexer struct {
	embedder Embedder
	vector   VectorIndex

	embeddingBatchSize int
	chunkSizeRunes     int
	chunkOverlapRunes  int
}

// NewIndexer 创建文档索引器
func NewIndexer(embedder Embedder, vector VectorIndex, embeddingBatchSize, chunkSizeRunes, chunkOverlapRunes int) *Indexer {
	if embeddingBatchSize <= 0 {
		embeddingBatchSize = defaultEmbeddingBatch
	}
	if chunkSizeRunes <= 0 {
		chunkSizeRunes = defaultChunkSizeRunes
	}
	if chunkOverlapRunes < 0 {
		chunkOverlapRunes = defaultChunkOverlapRunes
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vector,
		embeddingBatchSize: embeddingBatchSize,
		chunkSizeRunes:     chunkSizeRunes,
		chunkOverlapRunes:  chunkOverlapRunes,
	}
}

// Enabled 索引能力是否可用
func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

// Document 待索引的单个文档
type Document struct {
	// Source 文档的稳定来源标识（通常为存储路径或文件标识）
	Source   string
	Filename string
	Link     string
	Text     string
}

// IndexDocument 重建单个文档的索引：先删除旧分片，再切分、向量化并写入
// 分片标识为 "<source>_<序号>"，与检索侧的去重键保持一致
func (i *Indexer) IndexDocument(ctx context.Context, doc Document) (int, error) {
	ctx, span := tracer.Start(ctx, "retrieval.IndexDocument")
	defer span.End()

	if !i.Enabled() {
		return 0, ErrVectorDisabled
	}
	if strings.TrimSpace(doc.Source) == "" {
		return 0, fmt.Errorf("document source is required")
	}
	if err := i.vector.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	// 先删除旧分片，避免改写后残留
	if err := i.vector.DeleteBySource(ctx, doc.Source); err != nil {
		return 0, fmt.Errorf("delete existing chunks: %w", err)
	}

	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return 0, nil
	}

	chunks := splitByRunes(text, i.chunkSizeRunes, i.chunkOverlapRunes)
	if len(chunks) == 0 {
		return 0, nil
	}
	span.SetAttributes(attribute.Int("index.chunks", len(chunks)))

	filename := strings.TrimSpace(doc.Filename)
	if filename == "" {
		filename = doc.Source
	}

	records := make([]*DocumentChunk, 0, len(chunks))
	for seq, chunk := range chunks {
		records = append(records, &DocumentChunk{
			ID:       fmt.Sprintf("%s_%d", doc.Source, seq),
			Source:   doc.Source,
			Filename: filename,
			Link:     doc.Link,
			ChunkSeq: seq,
			Text:     chunk,
		})
	}

	vectors, err := i.embedBatch(ctx, chunks)
	if err != nil {
		metrics.IngestChunksTotal.WithLabelValues("failed").Add(float64(len(records)))
		return 0, err
	}
	for idx := range records {
		records[idx].Vector = vectors[idx]
	}

	if err := i.vector.InsertChunks(ctx, records); err != nil {
		metrics.IngestChunksTotal.WithLabelValues("failed").Add(float64(len(records)))
		return 0, fmt.Errorf("insert chunks: %w", err)
	}
	metrics.IngestChunksTotal.WithLabelValues("indexed").Add(float64(len(records)))

	logger.Info(ctx, "document indexed",
		"source", doc.Source, "chunks", len(records))
	return len(records), nil
}

// RemoveDocument 删除文档的全部分片
func (i *Indexer) RemoveDocument(ctx context.Context, source string) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("document source is required")
	}
	return i.vector.DeleteBySource(ctx, source)
}

// IndexStats 向量索引的分片规模
type IndexStats struct {
	ChunkCount int64
	HasAny     bool
}

// Stats 查询索引中的分片总量与非空标记
func (i *Indexer) Stats(ctx context.Context) (IndexStats, error) {
	if !i.Enabled() {
		return IndexStats{}, ErrVectorDisabled
	}
	count, err := i.vector.Count(ctx)
	if err != nil {
		return IndexStats{}, fmt.Errorf("count chunks: %w", err)
	}
	hasAny, err := i.vector.HasAny(ctx)
	if err != nil {
		return IndexStats{}, fmt.Errorf("check index: %w", err)
	}
	return IndexStats{ChunkCount: count, HasAny: hasAny}, nil
}

// embedBatch 分批向量化文本
func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := i.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(out), len(texts))
	}
	return out, nil
}
