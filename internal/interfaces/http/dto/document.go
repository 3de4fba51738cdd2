// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"sop-assistant-api/internal/domain/entity"
)

// IngestRequest 文档入库请求
type IngestRequest struct {
	Source   string `json:"source,omitempty"`
	Filename string `json:"filename" binding:"required,max=255"`
	Link     string `json:"link,omitempty" binding:"max=512"`
	Text     string `json:"text" binding:"required"`
}

// DocumentResponse 文档响应
type DocumentResponse struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Filename   string    `json:"filename"`
	Link       string    `json:"link,omitempty"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentListResponse 文档列表响应
type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
}

// NewDocumentResponse 从实体构建文档响应
func NewDocumentResponse(doc *entity.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         doc.ID,
		Source:     doc.Source,
		Filename:   doc.Filename,
		Link:       doc.Link,
		Status:     string(doc.Status),
		ChunkCount: doc.ChunkCount,
		LastError:  doc.LastError,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// CorpusStatsResponse 文档库规模响应
type CorpusStatsResponse struct {
	DocumentCount int64 `json:"document_count"`
	ChunkCount    int64 `json:"chunk_count"`
	HasAny        bool  `json:"has_any"`
}

// NewDocumentListResponse 从实体列表构建文档列表响应
func NewDocumentListResponse(docs []*entity.Document) *DocumentListResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, NewDocumentResponse(d))
	}
	return &DocumentListResponse{Documents: out}
}
