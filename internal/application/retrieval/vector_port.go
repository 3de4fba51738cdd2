package retrieval

import "context"

// Embedder 定义应用层对“文本向量化”的最小依赖（port）。
// 实现方负责批量调用、瞬时失败重试，并以 TransientError 标记可重试错误。
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	// Search 返回最多 topK 条按相似度降序排列的命中，索引为空时返回空切片而非错误
	Search(ctx context.Context, queryVector []float32, topK int) ([]*SearchHit, error)
	InsertChunks(ctx context.Context, chunks []*DocumentChunk) error
	DeleteBySource(ctx context.Context, source string) error
	Count(ctx context.Context) (int64, error)
	HasAny(ctx context.Context) (bool, error)
}

// SearchHit 向量检索的单条命中
type SearchHit struct {
	// SourceID 文档+分片的稳定标识，形如 "<source>_<chunk序号>"
	SourceID string
	Content  string
	Filename string
	Link     string
	Score    float32
}

// DocumentChunk 待写入向量索引的文档分片
type DocumentChunk struct {
	ID       string
	Source   string
	Filename string
	Link     string
	ChunkSeq int
	Text     string
	Vector   []float32
}
