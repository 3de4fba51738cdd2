package milvus

import (
	"context"

	"sop-assistant-api/internal/application/retrieval"
)

// VectorIndexAdapter 将 Repository 适配为检索层的 VectorIndex port
type VectorIndexAdapter struct {
	repo *Repository
}

func NewVectorIndexAdapter(repo *Repository) *VectorIndexAdapter {
	return &VectorIndexAdapter{repo: repo}
}

var _ retrieval.VectorIndex = (*VectorIndexAdapter)(nil)

func (a *VectorIndexAdapter) EnsureCollection(ctx context.Context) error {
	if a == nil || a.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return a.repo.EnsureCollection(ctx)
}

func (a *VectorIndexAdapter) Search(ctx context.Context, queryVector []float32, topK int) ([]*retrieval.SearchHit, error) {
	if a == nil || a.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}

	out, err := a.repo.Search(ctx, queryVector, topK)
	if err != nil {
		// Milvus 故障视为瞬时，由编排层决定是否容忍
		return nil, &retrieval.TransientError{Err: err}
	}

	hits := make([]*retrieval.SearchHit, 0, len(out))
	for i := range out {
		v := out[i]
		if v == nil {
			continue
		}
		hits = append(hits, &retrieval.SearchHit{
			SourceID: v.ID,
			Content:  v.TextContent,
			Filename: v.Filename,
			Link:     v.Link,
			Score:    v.Score,
		})
	}
	return hits, nil
}

func (a *VectorIndexAdapter) InsertChunks(ctx context.Context, chunks []*retrieval.DocumentChunk) error {
	if a == nil || a.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	if len(chunks) == 0 {
		return nil
	}

	out := make([]*SOPChunk, 0, len(chunks))
	for i := range chunks {
		c := chunks[i]
		if c == nil {
			continue
		}
		out = append(out, &SOPChunk{
			ID:          c.ID,
			Vector:      c.Vector,
			Source:      c.Source,
			Filename:    c.Filename,
			ChunkSeq:    int64(c.ChunkSeq),
			Link:        c.Link,
			TextContent: c.Text,
		})
	}
	return a.repo.InsertChunks(ctx, out)
}

func (a *VectorIndexAdapter) DeleteBySource(ctx context.Context, source string) error {
	if a == nil || a.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return a.repo.DeleteBySource(ctx, source)
}

func (a *VectorIndexAdapter) Count(ctx context.Context) (int64, error) {
	if a == nil || a.repo == nil {
		return 0, retrieval.ErrVectorDisabled
	}
	return a.repo.Count(ctx)
}

func (a *VectorIndexAdapter) HasAny(ctx context.Context) (bool, error) {
	if a == nil || a.repo == nil {
		return false, retrieval.ErrVectorDisabled
	}
	return a.repo.HasAny(ctx)
}
