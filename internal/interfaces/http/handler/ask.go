// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"sop-assistant-api/internal/application/chat"
	"sop-assistant-api/internal/interfaces/http/dto"
)

// AskHandler 问答处理器
type AskHandler struct {
	chatService *chat.Service
}

// NewAskHandler 创建问答处理器
func NewAskHandler(chatService *chat.Service) *AskHandler {
	return &AskHandler{chatService: chatService}
}

// Ask 提问接口
// @Summary 向助手提问
// @Description 基于 SOP 文档检索并生成回答，消息中 @专家 时路由到对应专家
// @Tags Ask
// @Accept json
// @Produce json
// @Param body body dto.AskRequest true "提问请求"
// @Success 200 {object} dto.Response[dto.AskResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/ask [post]
func (h *AskHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.chatService.Ask(c.Request.Context(), chat.AskInput{
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		Question:   req.Question,
		Budget:     req.Budget,
		UseExperts: req.UseExperts,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, dto.NewAskResponse(out))
}
