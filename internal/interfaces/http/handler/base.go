package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sop-assistant-api/internal/interfaces/http/dto"
	apperrors "sop-assistant-api/pkg/errors"
	"sop-assistant-api/pkg/logger"
)

// respondError 将应用错误映射为 HTTP 响应
func respondError(c *gin.Context, err error) {
	if appErr := apperrors.AsAppError(err); appErr != nil {
		detail := &dto.ErrorDetail{ErrorCode: string(appErr.Code)}
		if appErr.Detail != "" {
			detail.Details = appErr.Detail
		}
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, detail)
		return
	}
	logger.Error(c.Request.Context(), "unhandled error", err)
	dto.InternalError(c, "internal server error")
}

// requireUserID 从查询参数读取 user_id，缺失时写入 400 响应并返回空串
func requireUserID(c *gin.Context) string {
	userID := c.Query("user_id")
	if userID == "" {
		dto.BadRequest(c, "user_id is required")
	}
	return userID
}

// parseIntQuery 解析整数查询参数，缺失或非法时返回默认值
func parseIntQuery(c *gin.Context, key string, defaultVal int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultVal
	}
	return v
}
