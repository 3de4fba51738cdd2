// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"sop-assistant-api/internal/application/retrieval"
)

// SearchRequest 调试检索请求
type SearchRequest struct {
	Query  string `json:"query" binding:"required,max=5000"`
	Budget int    `json:"budget,omitempty"`
}

// SearchResponse 调试检索响应
type SearchResponse struct {
	Variants       []string       `json:"variants"`
	Passages       []*PassageView `json:"passages"`
	FailedVariants int            `json:"failed_variants,omitempty"`
	UsedFallback   bool           `json:"used_fallback,omitempty"`
}

// PassageView 检索片段视图
type PassageView struct {
	SourceID    string  `json:"source_id"`
	DisplayName string  `json:"display_name"`
	Content     string  `json:"content"`
	Similarity  float64 `json:"similarity"`
	Rank        int     `json:"rank"`
	Link        string  `json:"link,omitempty"`
}

// NewSearchResponse 从检索结果构建响应
func NewSearchResponse(result *retrieval.Result) *SearchResponse {
	resp := &SearchResponse{
		Variants:       result.Variants,
		Passages:       make([]*PassageView, 0, len(result.Passages)),
		FailedVariants: result.FailedVariants,
		UsedFallback:   result.UsedFallback,
	}
	for _, p := range result.Passages {
		resp.Passages = append(resp.Passages, &PassageView{
			SourceID:    p.SourceID,
			DisplayName: p.DisplayName,
			Content:     p.Content,
			Similarity:  p.Similarity,
			Rank:        p.Rank,
			Link:        p.Link,
		})
	}
	return resp
}
