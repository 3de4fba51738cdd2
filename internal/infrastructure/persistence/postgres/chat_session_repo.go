// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sop-assistant-api/internal/domain/entity"
	"sop-assistant-api/internal/domain/repository"
	apperrors "sop-assistant-api/pkg/errors"
)

type ChatSessionRepository struct {
	client *Client
}

func NewChatSessionRepository(client *Client) *ChatSessionRepository {
	return &ChatSessionRepository{client: client}
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) GetByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var session entity.ChatSession
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return &session, nil
}

func (r *ChatSessionRepository) Update(ctx context.Context, session *entity.ChatSession) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chat session: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.ChatSession{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ChatSession], error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ChatSession{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chat sessions: %w", err)
	}

	var sessions []*entity.ChatSession
	if err := query.Order("updated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&sessions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}

	return repository.NewPagedResult(sessions, total, pagination), nil
}

func (r *ChatSessionRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*entity.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.ListRecentByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var sessions []*entity.ChatSession
	if err := db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list recent chat sessions: %w", err)
	}
	return sessions, nil
}

func (r *ChatSessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatSessionRepository.DeleteByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)

	// 先清理轮次再删会话，避免悬挂记录
	if err := db.Where("session_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&entity.ChatSession{}).Select("id").Where("user_id = ?", userID),
	).Delete(&entity.ChatTurn{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chat turns for user: %w", err)
	}

	if err := db.Delete(&entity.ChatSession{}, "user_id = ?", userID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chat sessions: %w", err)
	}
	return nil
}
