// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"sop-assistant-api/internal/domain/entity"
)

// SessionResponse 会话响应
type SessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionListResponse 会话列表响应
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

// TurnResponse 问答轮次响应
type TurnResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	ExpertIDs []string  `json:"expert_ids,omitempty"`
	Sources   []string  `json:"sources,omitempty"`
	Grounded  bool      `json:"grounded"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnListResponse 问答轮次列表响应
type TurnListResponse struct {
	Turns []*TurnResponse `json:"turns"`
}

// NewSessionResponse 从实体构建会话响应
func NewSessionResponse(session *entity.ChatSession) *SessionResponse {
	return &SessionResponse{
		ID:        session.ID,
		UserID:    session.UserID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

// NewSessionListResponse 从实体列表构建会话列表响应
func NewSessionListResponse(sessions []*entity.ChatSession) *SessionListResponse {
	out := make([]*SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, NewSessionResponse(s))
	}
	return &SessionListResponse{Sessions: out}
}

// NewTurnResponse 从实体构建轮次响应
func NewTurnResponse(turn *entity.ChatTurn) *TurnResponse {
	return &TurnResponse{
		ID:        turn.ID,
		SessionID: turn.SessionID,
		Question:  turn.Question,
		Answer:    turn.Answer,
		ExpertIDs: turn.ExpertIDs,
		Sources:   turn.Sources,
		Grounded:  turn.Grounded,
		CreatedAt: turn.CreatedAt,
	}
}

// NewTurnListResponse 从实体列表构建轮次列表响应
func NewTurnListResponse(turns []*entity.ChatTurn) *TurnListResponse {
	out := make([]*TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, NewTurnResponse(t))
	}
	return &TurnListResponse{Turns: out}
}
