// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"sop-assistant-api/internal/application/chat"
	"sop-assistant-api/internal/domain/repository"
	"sop-assistant-api/internal/interfaces/http/dto"
)

// SessionHandler 会话管理处理器
type SessionHandler struct {
	chatService *chat.Service
}

// NewSessionHandler 创建会话管理处理器
func NewSessionHandler(chatService *chat.Service) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

// List 列出用户会话
// @Summary 列出用户会话
// @Tags Sessions
// @Produce json
// @Param user_id query string true "用户 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[dto.SessionListResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	page := dto.BindPage(c)

	result, err := h.chatService.ListSessions(c.Request.Context(), userID, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.NewSessionListResponse(result.Items),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// Recent 列出用户最近会话
// @Summary 列出用户最近更新的会话
// @Tags Sessions
// @Produce json
// @Param user_id query string true "用户 ID"
// @Param limit query int false "条数上限"
// @Success 200 {object} dto.Response[dto.SessionListResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/sessions/recent [get]
func (h *SessionHandler) Recent(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}
	limit := parseIntQuery(c, "limit", 10)

	sessions, err := h.chatService.RecentSessions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, dto.NewSessionListResponse(sessions))
}

// History 查询会话历史轮次
// @Summary 查询会话的问答历史
// @Tags Sessions
// @Produce json
// @Param sid path string true "会话 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} dto.Response[dto.TurnListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/turns [get]
func (h *SessionHandler) History(c *gin.Context) {
	sessionID := dto.BindSessionID(c)
	page := dto.BindPage(c)

	result, err := h.chatService.History(c.Request.Context(), sessionID, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.NewTurnListResponse(result.Items),
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// Delete 删除会话
// @Summary 删除会话及其全部历史
// @Tags Sessions
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID := dto.BindSessionID(c)

	if err := h.chatService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	dto.NoContent(c)
}

// Clear 清空用户的全部会话
// @Summary 删除用户的全部会话与历史
// @Tags Sessions
// @Produce json
// @Param user_id query string true "用户 ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/sessions [delete]
func (h *SessionHandler) Clear(c *gin.Context) {
	userID := requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.chatService.ClearUser(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	dto.NoContent(c)
}
