// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"sop-assistant-api/internal/domain/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	GetBySource(ctx context.Context, source string) (*entity.Document, error)
	Update(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Document], error)
	ListByStatus(ctx context.Context, status entity.DocumentStatus, pagination Pagination) (*PagedResult[*entity.Document], error)
	Count(ctx context.Context) (int64, error)
}
