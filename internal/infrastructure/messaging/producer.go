// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishIngestJob 发布文档索引任务
func (p *Producer) PublishIngestJob(ctx context.Context, job *IngestJobMessage) (string, error) {
	msg, err := NewMessage(job.DocumentID, TypeDocumentIngest, job)
	if err != nil {
		return "", err
	}

	if job.RequestID != "" {
		msg.SetMetadata("request_id", job.RequestID)
	}
	return p.Publish(ctx, StreamSOPIngest, msg)
}

// PublishRemoveJob 发布文档移除任务
func (p *Producer) PublishRemoveJob(ctx context.Context, job *RemoveJobMessage) (string, error) {
	msg, err := NewMessage(job.DocumentID, TypeDocumentRemove, job)
	if err != nil {
		return "", err
	}

	if job.RequestID != "" {
		msg.SetMetadata("request_id", job.RequestID)
	}
	return p.Publish(ctx, StreamSOPIngest, msg)
}

// IngestJobMessage 文档索引任务消息
type IngestJobMessage struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Filename   string `json:"filename"`
	Link       string `json:"link,omitempty"`
	Text       string `json:"text"`
	RequestID  string `json:"request_id,omitempty"`
}

// RemoveJobMessage 文档移除任务消息
type RemoveJobMessage struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	RequestID  string `json:"request_id,omitempty"`
}
