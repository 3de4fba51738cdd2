// Package ingest 管理 SOP 文档的登记、异步索引和移除
package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"

	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/domain/entity"
	"sop-assistant-api/internal/domain/repository"
	"sop-assistant-api/internal/infrastructure/messaging"
	"sop-assistant-api/pkg/errors"
	"sop-assistant-api/pkg/logger"
)

var tracer = otel.Tracer("application/ingest")

// JobPublisher 索引任务发布端口
type JobPublisher interface {
	PublishIngestJob(ctx context.Context, job *messaging.IngestJobMessage) (string, error)
	PublishRemoveJob(ctx context.Context, job *messaging.RemoveJobMessage) (string, error)
}

// Service 文档摄取应用服务
// API 侧负责登记并投递任务，worker 侧通过 ProcessIngest/ProcessRemove 执行
type Service struct {
	docs      repository.DocumentRepository
	publisher JobPublisher
	indexer   *retrieval.Indexer
}

func NewService(docs repository.DocumentRepository, publisher JobPublisher, indexer *retrieval.Indexer) *Service {
	return &Service{docs: docs, publisher: publisher, indexer: indexer}
}

type EnqueueInput struct {
	Source   string
	Filename string
	Link     string
	Text     string
}

// Enqueue 登记文档并投递索引任务
// 同一 source 重复提交会重建该文档的索引
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "ingest.Enqueue")
	defer span.End()

	in.Filename = strings.TrimSpace(in.Filename)
	in.Text = strings.TrimSpace(in.Text)
	if in.Filename == "" {
		return nil, errors.New(errors.CodeValidationFailed, "filename must not be empty")
	}
	if in.Text == "" {
		return nil, errors.New(errors.CodeValidationFailed, "document text must not be empty")
	}
	if in.Source == "" {
		in.Source = sourceFromFilename(in.Filename)
	}

	doc, err := s.docs.GetBySource(ctx, in.Source)
	switch {
	case err == nil && doc != nil:
		doc.Filename = in.Filename
		doc.Link = in.Link
		doc.Status = entity.DocumentStatusPending
		doc.LastError = ""
		if err := s.docs.Update(ctx, doc); err != nil {
			span.RecordError(err)
			return nil, err
		}
	case errors.IsCode(err, errors.CodeDocumentNotFound):
		doc = entity.NewDocument(in.Source, in.Filename, in.Link)
		if err := s.docs.Create(ctx, doc); err != nil {
			span.RecordError(err)
			return nil, err
		}
	default:
		span.RecordError(err)
		return nil, err
	}

	job := &messaging.IngestJobMessage{
		DocumentID: doc.ID,
		Source:     doc.Source,
		Filename:   doc.Filename,
		Link:       doc.Link,
		Text:       in.Text,
		RequestID:  logger.RequestIDFromContext(ctx),
	}
	if _, err := s.publisher.PublishIngestJob(ctx, job); err != nil {
		span.RecordError(err)
		doc.Status = entity.DocumentStatusFailed
		doc.LastError = err.Error()
		if uerr := s.docs.Update(ctx, doc); uerr != nil {
			logger.Warn(ctx, "mark document failed after publish error",
				"document_id", doc.ID,
				"error", uerr.Error(),
			)
		}
		return nil, errors.Wrap(err, errors.CodeMessagingError, "failed to enqueue ingest job")
	}
	return doc, nil
}

// Remove 投递文档移除任务
func (s *Service) Remove(ctx context.Context, documentID string) error {
	ctx, span := tracer.Start(ctx, "ingest.Remove")
	defer span.End()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	job := &messaging.RemoveJobMessage{
		DocumentID: doc.ID,
		Source:     doc.Source,
		RequestID:  logger.RequestIDFromContext(ctx),
	}
	if _, err := s.publisher.PublishRemoveJob(ctx, job); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeMessagingError, "failed to enqueue remove job")
	}
	return nil
}

// Get 查询单个文档状态
func (s *Service) Get(ctx context.Context, documentID string) (*entity.Document, error) {
	return s.docs.GetByID(ctx, documentID)
}

// List 分页列出已登记文档
func (s *Service) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	return s.docs.List(ctx, pagination)
}

// CorpusStats 文档库与向量索引的规模概览
type CorpusStats struct {
	DocumentCount int64
	ChunkCount    int64
	HasAny        bool
}

// Stats 汇总已登记文档数与索引分片规模
func (s *Service) Stats(ctx context.Context) (*CorpusStats, error) {
	ctx, span := tracer.Start(ctx, "ingest.Stats")
	defer span.End()

	docCount, err := s.docs.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	idx, err := s.indexer.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeVectorDBError, "failed to read index stats")
	}
	return &CorpusStats{
		DocumentCount: docCount,
		ChunkCount:    idx.ChunkCount,
		HasAny:        idx.HasAny,
	}, nil
}

// ProcessIngest worker 侧执行文档索引
// 返回错误时由消费端按退避策略重试
func (s *Service) ProcessIngest(ctx context.Context, job *messaging.IngestJobMessage) error {
	ctx, span := tracer.Start(ctx, "ingest.ProcessIngest")
	defer span.End()

	doc, err := s.docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		if errors.IsCode(err, errors.CodeDocumentNotFound) {
			// 文档已被删除，任务作废
			logger.Warn(ctx, "ingest job for unknown document dropped", "document_id", job.DocumentID)
			return nil
		}
		return err
	}

	doc.Status = entity.DocumentStatusIndexing
	if err := s.docs.Update(ctx, doc); err != nil {
		return err
	}

	chunks, err := s.indexer.IndexDocument(ctx, retrieval.Document{
		Source:   job.Source,
		Filename: job.Filename,
		Link:     job.Link,
		Text:     job.Text,
	})
	if err != nil {
		span.RecordError(err)
		doc.Status = entity.DocumentStatusFailed
		doc.LastError = err.Error()
		if uerr := s.docs.Update(ctx, doc); uerr != nil {
			logger.Warn(ctx, "mark document failed", "document_id", doc.ID, "error", uerr.Error())
		}
		return err
	}

	doc.Status = entity.DocumentStatusIndexed
	doc.ChunkCount = chunks
	doc.LastError = ""
	return s.docs.Update(ctx, doc)
}

// ProcessRemove worker 侧移除文档分片并删除登记记录
func (s *Service) ProcessRemove(ctx context.Context, job *messaging.RemoveJobMessage) error {
	ctx, span := tracer.Start(ctx, "ingest.ProcessRemove")
	defer span.End()

	if err := s.indexer.RemoveDocument(ctx, job.Source); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.docs.Delete(ctx, job.DocumentID); err != nil {
		return err
	}
	return nil
}

// sourceFromFilename 把文件名归一化成稳定的 source 标识
func sourceFromFilename(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.Join(strings.Fields(base), "_")
	return strings.ToLower(base)
}
