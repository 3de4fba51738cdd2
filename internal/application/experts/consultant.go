package experts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"

	"sop-assistant-api/pkg/logger"
	"sop-assistant-api/pkg/metrics"
)

var consultTracer = otel.Tracer("application/experts")

// collaborationPreviewRunes 传递给后续专家的前序观点截断长度
const collaborationPreviewRunes = 200

// ExpertResponse 单个专家的咨询结果
type ExpertResponse struct {
	ExpertID    string    `json:"expert_id"`
	ExpertTitle string    `json:"expert_title"`
	Response    string    `json:"response"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Consultation 一次完整的多专家咨询结果，按请求生命周期存在
type Consultation struct {
	Query       string           `json:"query"`
	ExpertIDs   []string         `json:"expert_ids"`
	Responses   []ExpertResponse `json:"responses"`
	Selection   string           `json:"selection"` // mention / auto / fallback
	ConsultedAt time.Time        `json:"consulted_at"`
}

// Consultant 顺序咨询选中的专家，并在专家之间传递协作上下文
type Consultant struct {
	catalog *Catalog
	router  *Router
	chat    model.BaseChatModel
}

// NewConsultant 创建多专家咨询器
func NewConsultant(catalog *Catalog, router *Router, chat model.BaseChatModel) *Consultant {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if router == nil {
		router = NewRouter(catalog, 0, "")
	}
	return &Consultant{catalog: catalog, router: router, chat: chat}
}

// Consult 路由并顺序咨询专家，contextPassages 为检索到的文档片段
// 单个专家失败不会中断整体咨询，失败的专家返回兜底回复
func (c *Consultant) Consult(ctx context.Context, query string, contextPassages []string) (*Consultation, error) {
	ctx, span := consultTracer.Start(ctx, "experts.Consult")
	defer span.End()

	selection := "auto"
	expertIDs := c.router.ParseMentions(query)
	if len(expertIDs) == 0 {
		expertIDs = c.router.Route(query)
		if len(expertIDs) == 1 {
			if p, ok := c.catalog.Get(expertIDs[0]); ok && c.router.Relevance(query, p) == 0 {
				selection = "fallback"
			}
		}
	} else {
		selection = "mention"
	}

	result := &Consultation{
		Query:       query,
		ExpertIDs:   expertIDs,
		Responses:   make([]ExpertResponse, 0, len(expertIDs)),
		Selection:   selection,
		ConsultedAt: time.Now(),
	}

	var collaboration strings.Builder
	for _, id := range expertIDs {
		persona, ok := c.catalog.Get(id)
		if !ok {
			continue
		}
		metrics.ExpertConsultTotal.WithLabelValues(persona.ID, selection).Inc()

		text, err := c.generate(ctx, persona, query, contextPassages, collaboration.String())
		if err != nil {
			logger.Warn(ctx, "expert response generation failed, using fallback",
				"expert_id", persona.ID, "error", err.Error())
			text = fallbackResponse(persona, query)
		}
		result.Responses = append(result.Responses, ExpertResponse{
			ExpertID:    persona.ID,
			ExpertTitle: persona.Title,
			Response:    text,
			GeneratedAt: time.Now(),
		})

		collaboration.WriteString(fmt.Sprintf("\n%s's perspective: %s...",
			persona.ID, truncateRunes(text, collaborationPreviewRunes)))
	}

	return result, nil
}

// generate 调用聊天模型生成单个专家的回复
func (c *Consultant) generate(ctx context.Context, p Persona, query string, contextPassages []string, collaboration string) (string, error) {
	ctx, span := consultTracer.Start(ctx, "experts.generate")
	defer span.End()

	msgs := []*schema.Message{
		schema.SystemMessage(buildPersonaPrompt(p)),
		schema.UserMessage(buildConsultPrompt(query, contextPassages, collaboration)),
	}

	start := time.Now()
	resp, err := c.chat.Generate(ctx, msgs)
	metrics.LLMCallDuration.WithLabelValues("openai", "chat").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.LLMCallTotal.WithLabelValues("openai", "chat", "error").Inc()
		return "", err
	}
	metrics.LLMCallTotal.WithLabelValues("openai", "chat", "success").Inc()
	return resp.Content, nil
}

// buildPersonaPrompt 构建专家人设系统提示词
func buildPersonaPrompt(p Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s specializing in %s.\n\n", p.ID, p.Title, p.Expertise)
	fmt.Fprintf(&b, "PERSONALITY & APPROACH: %s\n\n", p.Personality)
	b.WriteString("CORE SPECIALIZATIONS:\n")
	for _, spec := range p.Specializations {
		fmt.Fprintf(&b, "- %s\n", spec)
	}
	b.WriteString("\nStart directly with expert analysis, no greetings. ")
	b.WriteString("Reference the provided procedure context when relevant, but draw on your full industry expertise when it does not cover the question. ")
	b.WriteString("Provide specific, actionable technical guidance with industry metrics and standards. ")
	b.WriteString("Address the user professionally as a colleague, without template sections or generic placeholders.")
	return b.String()
}

// buildConsultPrompt 构建用户消息，含检索上下文与前序专家观点
func buildConsultPrompt(query string, contextPassages []string, collaboration string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER QUERY: %s\n\n", query)
	if len(contextPassages) > 0 {
		b.WriteString("RELEVANT SOP CONTEXT:\n")
		b.WriteString(strings.Join(contextPassages, "\n"))
		b.WriteString("\n")
	} else {
		b.WriteString("No specific SOP context available.\n")
	}
	if collaboration != "" {
		fmt.Fprintf(&b, "\nCOLLABORATION CONTEXT: %s\n", collaboration)
	}
	return b.String()
}

// fallbackResponse 模型调用失败时的兜底回复
func fallbackResponse(p Persona, query string) string {
	return fmt.Sprintf("As a %s, I understand your question about %s. Let me provide some general guidance based on my expertise in %s.",
		p.Title, query, p.Expertise)
}

// truncateRunes 按 rune 截断字符串
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
