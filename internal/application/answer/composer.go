// Package answer 将检索结果组装为提示词并调用语言模型生成带引用的回答
package answer

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"

	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/pkg/errors"
	"sop-assistant-api/pkg/metrics"
)

var tracer = otel.Tracer("application/answer")

// NoInformationMessage 检索无结果时直接返回的用户可见消息，不触发模型调用
const NoInformationMessage = "I couldn't find any relevant information in the SOPs to answer your question. " +
	"Try using full terms instead of abbreviations (e.g., 'accounts payable' instead of 'AP')."

// Answer 组装后的最终回答
type Answer struct {
	Text string `json:"text"`
	// Sources 回答引用的来源文件名，去重且保持首次出现顺序
	Sources []string `json:"sources"`
	// Grounded 是否基于检索上下文生成
	Grounded bool `json:"grounded"`
}

// Composer 回答组装器
type Composer struct {
	chat model.BaseChatModel
}

// NewComposer 创建回答组装器
func NewComposer(chat model.BaseChatModel) *Composer {
	return &Composer{chat: chat}
}

// Compose 基于检索结果生成回答
// 检索结果为空时返回固定的无信息提示，不调用模型
func (c *Composer) Compose(ctx context.Context, question string, result *retrieval.Result) (*Answer, error) {
	ctx, span := tracer.Start(ctx, "answer.Compose")
	defer span.End()

	if result == nil || len(result.Passages) == 0 {
		return &Answer{Text: NoInformationMessage, Sources: []string{}}, nil
	}

	msgs := []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(result)),
		schema.UserMessage(buildUserPrompt(question, result)),
	}

	start := time.Now()
	resp, err := c.chat.Generate(ctx, msgs)
	metrics.LLMCallDuration.WithLabelValues("openai", "chat").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.LLMCallTotal.WithLabelValues("openai", "chat", "error").Inc()
		return nil, errors.Wrap(err, errors.CodeLLMCallFailed, "answer generation failed")
	}
	metrics.LLMCallTotal.WithLabelValues("openai", "chat", "success").Inc()

	text := strings.TrimSpace(resp.Content)
	return &Answer{
		Text:     FormatSOPReferences(text),
		Sources:  retrieval.SourceNames(result.Passages),
		Grounded: true,
	}, nil
}
