// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/interfaces/http/dto"
)

// RetrievalHandler 检索调试处理器
type RetrievalHandler struct {
	orchestrator *retrieval.Orchestrator
}

// NewRetrievalHandler 创建检索调试处理器
func NewRetrievalHandler(orchestrator *retrieval.Orchestrator) *RetrievalHandler {
	return &RetrievalHandler{orchestrator: orchestrator}
}

// Search 检索调试接口
// @Summary 执行一次检索并返回变体与片段
// @Description 展示查询扩展出的变体和合并后的片段，不经过回答生成
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/retrieval/search [post]
func (h *RetrievalHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.orchestrator.Retrieve(c.Request.Context(), req.Query, req.Budget)
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, dto.NewSearchResponse(result))
}
