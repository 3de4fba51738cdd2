// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"sop-assistant-api/internal/domain/entity"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	GetByID(ctx context.Context, id string) (*entity.ChatSession, error)
	Update(ctx context.Context, session *entity.ChatSession) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.ChatSession], error)
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*entity.ChatSession, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	ListBySession(ctx context.Context, sessionID string, pagination Pagination) (*PagedResult[*entity.ChatTurn], error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
