// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"sop-assistant-api/internal/application/experts"
	"sop-assistant-api/internal/interfaces/http/dto"
)

// ExpertHandler 专家目录处理器
type ExpertHandler struct {
	catalog *experts.Catalog
	router  *experts.Router
}

// NewExpertHandler 创建专家目录处理器
func NewExpertHandler(catalog *experts.Catalog, router *experts.Router) *ExpertHandler {
	return &ExpertHandler{catalog: catalog, router: router}
}

// List 列出专家目录
// @Summary 列出可咨询的专家
// @Tags Experts
// @Produce json
// @Success 200 {object} dto.Response[dto.ExpertListResponse]
// @Router /v1/experts [get]
func (h *ExpertHandler) List(c *gin.Context) {
	dto.Success(c, dto.NewExpertListResponse(h.catalog.List()))
}

// PreviewRoute 预览查询会路由到哪些专家
// @Summary 预览专家路由结果
// @Tags Experts
// @Accept json
// @Produce json
// @Param body body dto.RoutePreviewRequest true "路由预览请求"
// @Success 200 {object} dto.Response[dto.RoutePreviewResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/experts/route [post]
func (h *ExpertHandler) PreviewRoute(c *gin.Context) {
	var req dto.RoutePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	selection := "mention"
	expertIDs := h.router.ParseMentions(req.Query)
	if len(expertIDs) == 0 {
		selection = "auto"
		expertIDs = h.router.Route(req.Query)
		if len(expertIDs) == 1 {
			if p, ok := h.catalog.Get(expertIDs[0]); ok && h.router.Relevance(req.Query, p) == 0 {
				selection = "fallback"
			}
		}
	}

	dto.Success(c, dto.RoutePreviewResponse{
		ExpertIDs: expertIDs,
		Selection: selection,
	})
}
