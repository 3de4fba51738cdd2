// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"sop-assistant-api/internal/application/ingest"
	"sop-assistant-api/internal/domain/repository"
	"sop-assistant-api/internal/interfaces/http/dto"
)

// DocumentHandler SOP 文档管理处理器
type DocumentHandler struct {
	ingestService *ingest.Service
}

// NewDocumentHandler 创建文档管理处理器
func NewDocumentHandler(ingestService *ingest.Service) *DocumentHandler {
	return &DocumentHandler{ingestService: ingestService}
}

// Ingest 提交文档入库
// @Summary 提交 SOP 文档入库
// @Description 登记文档并发布异步索引任务，索引由 worker 完成
// @Tags Documents
// @Accept json
// @Produce json
// @Param body body dto.IngestRequest true "入库请求"
// @Success 202 {object} dto.Response[dto.DocumentResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/documents [post]
func (h *DocumentHandler) Ingest(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	doc, err := h.ingestService.Enqueue(c.Request.Context(), ingest.EnqueueInput{
		Source:   req.Source,
		Filename: req.Filename,
		Link:     req.Link,
		Text:     req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Accepted(c, dto.NewDocumentResponse(doc))
}

// List 列出文档
// @Summary 列出已登记的 SOP 文档
// @Tags Documents
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[dto.DocumentListResponse]
// @Router /v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	page := dto.BindPage(c)

	result, err := h.ingestService.List(c.Request.Context(), repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.NewDocumentListResponse(result.Items),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// Stats 查询文档库规模
// @Summary 查询已登记文档数与向量索引分片规模
// @Tags Documents
// @Produce json
// @Success 200 {object} dto.Response[dto.CorpusStatsResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/documents/stats [get]
func (h *DocumentHandler) Stats(c *gin.Context) {
	stats, err := h.ingestService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, &dto.CorpusStatsResponse{
		DocumentCount: stats.DocumentCount,
		ChunkCount:    stats.ChunkCount,
		HasAny:        stats.HasAny,
	})
}

// Get 查询单个文档
// @Summary 查询文档及索引状态
// @Tags Documents
// @Produce json
// @Param did path string true "文档 ID"
// @Success 200 {object} dto.Response[dto.DocumentResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/documents/{did} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	documentID := dto.BindDocumentID(c)

	doc, err := h.ingestService.Get(c.Request.Context(), documentID)
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, dto.NewDocumentResponse(doc))
}

// Delete 删除文档
// @Summary 删除文档并发布异步清理任务
// @Tags Documents
// @Produce json
// @Param did path string true "文档 ID"
// @Success 202 {object} dto.Response[any]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/documents/{did} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID := dto.BindDocumentID(c)

	if err := h.ingestService.Remove(c.Request.Context(), documentID); err != nil {
		respondError(c, err)
		return
	}

	dto.Accepted[any](c, nil)
}
