// Package router 提供 HTTP 路由配置
package router

import (
	"sop-assistant-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	askHandler *handler.AskHandler,
	sessionHandler *handler.SessionHandler,
	documentHandler *handler.DocumentHandler,
	expertHandler *handler.ExpertHandler,
	retrievalHandler *handler.RetrievalHandler,
) {
	// 问答
	v1.POST("/ask", askHandler.Ask)

	// 会话管理
	sessions := v1.Group("/sessions")
	{
		sessions.GET("", sessionHandler.List)
		sessions.DELETE("", sessionHandler.Clear)
		sessions.GET("/recent", sessionHandler.Recent)
		sessions.GET("/:sid/turns", sessionHandler.History)
		sessions.DELETE("/:sid", sessionHandler.Delete)
	}

	// 文档管理
	documents := v1.Group("/documents")
	{
		documents.POST("", documentHandler.Ingest)
		documents.GET("", documentHandler.List)
		documents.GET("/stats", documentHandler.Stats)
		documents.GET("/:did", documentHandler.Get)
		documents.DELETE("/:did", documentHandler.Delete)
	}

	// 专家目录
	experts := v1.Group("/experts")
	{
		experts.GET("", expertHandler.List)
		experts.POST("/route", expertHandler.PreviewRoute)
	}

	// 检索调试
	retrieval := v1.Group("/retrieval")
	{
		retrieval.POST("/search", retrievalHandler.Search)
	}
}
