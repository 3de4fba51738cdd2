// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionSOPChunks SOP 文档分片集合
	CollectionSOPChunks = "sop_chunks"

	// DefaultVectorDimension 默认向量维度
	DefaultVectorDimension = 1024
)

// SOPChunksSchema SOP 分片 Collection Schema
// id 形如 "<source>_<chunk序号>"，与检索层的 SourceID 一致
func SOPChunksSchema(dimension int) *entity.Schema {
	if dimension <= 0 {
		dimension = DefaultVectorDimension
	}
	return &entity.Schema{
		CollectionName: CollectionSOPChunks,
		Description:    "SOP document chunks for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "320",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dimension),
				},
			},
			{
				Name:     "source",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "255",
				},
			},
			{
				Name:     "filename",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "255",
				},
			},
			{
				Name:     "chunk_seq",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "link",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// SOPChunk SOP 分片数据结构
type SOPChunk struct {
	ID          string    `json:"id"`
	Vector      []float32 `json:"vector"`
	Source      string    `json:"source"`
	Filename    string    `json:"filename"`
	ChunkSeq    int64     `json:"chunk_seq"`
	Link        string    `json:"link"`
	TextContent string    `json:"text_content"`
}
