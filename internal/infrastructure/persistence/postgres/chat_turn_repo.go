// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"sop-assistant-api/internal/domain/entity"
	"sop-assistant-api/internal/domain/repository"
)

type ChatTurnRepository struct {
	client *Client
}

func NewChatTurnRepository(client *Client) *ChatTurnRepository {
	return &ChatTurnRepository{client: client}
}

func (r *ChatTurnRepository) Create(ctx context.Context, turn *entity.ChatTurn) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatTurnRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(turn).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chat turn: %w", err)
	}
	return nil
}

func (r *ChatTurnRepository) ListBySession(ctx context.Context, sessionID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ChatTurn], error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatTurnRepository.ListBySession")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ChatTurn{}).Where("session_id = ?", sessionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chat turns: %w", err)
	}

	var turns []*entity.ChatTurn
	if err := query.Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&turns).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chat turns: %w", err)
	}

	return repository.NewPagedResult(turns, total, pagination), nil
}

func (r *ChatTurnRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatTurnRepository.DeleteBySession")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.ChatTurn{}, "session_id = ?", sessionID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chat turns: %w", err)
	}
	return nil
}
