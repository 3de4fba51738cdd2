// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"sop-assistant-api/internal/application/experts"
)

// ExpertResponse 专家人设响应
type ExpertResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Expertise       string   `json:"expertise"`
	Specializations []string `json:"specializations"`
}

// ExpertListResponse 专家目录响应
type ExpertListResponse struct {
	Experts []*ExpertResponse `json:"experts"`
}

// RoutePreviewRequest 专家路由预览请求
type RoutePreviewRequest struct {
	Query string `json:"query" binding:"required,max=5000"`
}

// RoutePreviewResponse 专家路由预览响应
type RoutePreviewResponse struct {
	ExpertIDs []string `json:"expert_ids"`
	Selection string   `json:"selection"`
}

// NewExpertResponse 从人设构建专家响应
func NewExpertResponse(p experts.Persona) *ExpertResponse {
	return &ExpertResponse{
		ID:              p.ID,
		Title:           p.Title,
		Expertise:       p.Expertise,
		Specializations: p.Specializations,
	}
}

// NewExpertListResponse 从目录构建专家列表响应
func NewExpertListResponse(personas []experts.Persona) *ExpertListResponse {
	out := make([]*ExpertResponse, 0, len(personas))
	for _, p := range personas {
		out = append(out, NewExpertResponse(p))
	}
	return &ExpertListResponse{Experts: out}
}
