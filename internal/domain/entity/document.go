// Package entity 定义领域实体
package entity

import "time"

// DocumentStatus 文档索引状态
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusIndexing DocumentStatus = "indexing"
	DocumentStatusIndexed  DocumentStatus = "indexed"
	DocumentStatusFailed   DocumentStatus = "failed"
)

// Document 已登记的 SOP 文档及其索引状态
type Document struct {
	ID         string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Source     string         `json:"source" gorm:"type:varchar(255);uniqueIndex;not null"`
	Filename   string         `json:"filename" gorm:"type:varchar(255);not null"`
	Link       string         `json:"link,omitempty" gorm:"type:varchar(512)"`
	Status     DocumentStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	ChunkCount int            `json:"chunk_count" gorm:"not null;default:0"`
	LastError  string         `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

func NewDocument(source, filename, link string) *Document {
	now := time.Now()
	return &Document{
		Source:    source,
		Filename:  filename,
		Link:      link,
		Status:    DocumentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
