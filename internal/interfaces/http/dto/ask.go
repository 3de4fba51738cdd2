// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"sop-assistant-api/internal/application/chat"
	"sop-assistant-api/internal/application/experts"
	"sop-assistant-api/internal/application/retrieval"
)

// AskRequest 提问请求
type AskRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Question   string `json:"question" binding:"required,max=5000"`
	Budget     int    `json:"budget,omitempty"`
	UseExperts bool   `json:"use_experts,omitempty"`
}

// AskResponse 提问响应
type AskResponse struct {
	SessionID    string                `json:"session_id,omitempty"`
	Answer       string                `json:"answer"`
	Sources      []string              `json:"sources"`
	Grounded     bool                  `json:"grounded"`
	Consultation *ConsultationView     `json:"consultation,omitempty"`
	Retrieval    *RetrievalSummaryView `json:"retrieval,omitempty"`
}

// ConsultationView 专家咨询结果视图
type ConsultationView struct {
	ExpertIDs   []string             `json:"expert_ids"`
	Selection   string               `json:"selection"`
	Responses   []ExpertResponseView `json:"responses"`
	ConsultedAt time.Time            `json:"consulted_at"`
}

// ExpertResponseView 单个专家观点视图
type ExpertResponseView struct {
	ExpertID    string `json:"expert_id"`
	ExpertTitle string `json:"expert_title"`
	Response    string `json:"response"`
}

// RetrievalSummaryView 检索过程摘要视图
type RetrievalSummaryView struct {
	Variants       []string `json:"variants"`
	PassageCount   int      `json:"passage_count"`
	FailedVariants int      `json:"failed_variants,omitempty"`
	UsedFallback   bool     `json:"used_fallback,omitempty"`
}

// NewAskResponse 从应用层输出构建响应
func NewAskResponse(out *chat.AskOutput) *AskResponse {
	resp := &AskResponse{
		SessionID: out.SessionID,
		Sources:   []string{},
	}
	if out.Answer != nil {
		resp.Answer = out.Answer.Text
		resp.Grounded = out.Answer.Grounded
		if len(out.Answer.Sources) > 0 {
			resp.Sources = out.Answer.Sources
		}
	}
	resp.Consultation = NewConsultationView(out.Consultation)
	resp.Retrieval = NewRetrievalSummaryView(out.Retrieval)
	return resp
}

// NewConsultationView 从咨询结果构建视图
func NewConsultationView(consultation *experts.Consultation) *ConsultationView {
	if consultation == nil {
		return nil
	}
	view := &ConsultationView{
		ExpertIDs:   consultation.ExpertIDs,
		Selection:   consultation.Selection,
		Responses:   make([]ExpertResponseView, 0, len(consultation.Responses)),
		ConsultedAt: consultation.ConsultedAt,
	}
	for _, r := range consultation.Responses {
		view.Responses = append(view.Responses, ExpertResponseView{
			ExpertID:    r.ExpertID,
			ExpertTitle: r.ExpertTitle,
			Response:    r.Response,
		})
	}
	return view
}

// NewRetrievalSummaryView 从检索结果构建摘要视图
func NewRetrievalSummaryView(result *retrieval.Result) *RetrievalSummaryView {
	if result == nil {
		return nil
	}
	return &RetrievalSummaryView{
		Variants:       result.Variants,
		PassageCount:   len(result.Passages),
		FailedVariants: result.FailedVariants,
		UsedFallback:   result.UsedFallback,
	}
}
