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

type DocumentRepository struct {
	client *Client
}

func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var doc entity.Document
	if err := db.First(&doc, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrDocumentNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetBySource(ctx context.Context, source string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetBySource")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var doc entity.Document
	if err := db.First(&doc, "source = ?", source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrDocumentNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get document by source: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *entity.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Document{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.List")
	defer span.End()

	return r.list(ctx, getDB(ctx, r.client.db).Model(&entity.Document{}), pagination)
}

func (r *DocumentRepository) ListByStatus(ctx context.Context, status entity.DocumentStatus, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.ListByStatus")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&entity.Document{}).Where("status = ?", status)
	return r.list(ctx, query, pagination)
}

func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Count")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var total int64
	if err := db.Model(&entity.Document{}).Count(&total).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return total, nil
}

func (r *DocumentRepository) list(ctx context.Context, query *gorm.DB, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var docs []*entity.Document
	if err := query.Order("filename ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return repository.NewPagedResult(docs, total, pagination), nil
}
