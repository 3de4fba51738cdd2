// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

const chatTitleMaxRunes = 50

// ChatSession 一个用户与助手的会话
type ChatSession struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

func NewChatSession(userID, firstQuestion string) *ChatSession {
	now := time.Now()
	return &ChatSession{
		UserID:    userID,
		Title:     ChatTitleFromQuestion(firstQuestion),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChatTitleFromQuestion 从首个问题生成会话标题
func ChatTitleFromQuestion(question string) string {
	title := strings.Join(strings.Fields(question), " ")
	if title == "" {
		return "New chat"
	}
	runes := []rune(title)
	if len(runes) > chatTitleMaxRunes {
		title = strings.TrimSpace(string(runes[:chatTitleMaxRunes])) + "..."
	}
	return title
}

// ChatTurn 一轮问答记录
type ChatTurn struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID string         `json:"session_id" gorm:"type:uuid;index;not null"`
	Question  string         `json:"question" gorm:"type:text;not null"`
	Answer    string         `json:"answer" gorm:"type:text;not null"`
	ExpertIDs pq.StringArray `json:"expert_ids,omitempty" gorm:"type:text[]"`
	Sources   pq.StringArray `json:"sources,omitempty" gorm:"type:text[]"`
	Grounded  bool           `json:"grounded" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}

func NewChatTurn(sessionID, question, answer string, expertIDs, sources []string, grounded bool) *ChatTurn {
	return &ChatTurn{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		ExpertIDs: expertIDs,
		Sources:   sources,
		Grounded:  grounded,
		CreatedAt: time.Now(),
	}
}
