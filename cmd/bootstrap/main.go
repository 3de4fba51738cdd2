package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"sop-assistant-api/internal/config"
	"sop-assistant-api/internal/domain/entity"
	"sop-assistant-api/internal/infrastructure/persistence/milvus"
	"sop-assistant-api/internal/infrastructure/persistence/postgres"
	"sop-assistant-api/internal/infrastructure/persistence/redis"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化 PostgreSQL 并迁移表结构
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("failed to init postgres: %v", err)
	}
	defer func() { _ = pgClient.Close() }()

	fmt.Println("Migrating database schema...")
	if err := pgClient.DB().WithContext(ctx).AutoMigrate(
		&entity.ChatSession{},
		&entity.ChatTurn{},
		&entity.Document{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Database schema migrated.")

	// 3. 初始化 Milvus 集合与索引
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		log.Fatalf("failed to init milvus: %v", err)
	}
	defer func() { _ = milvusClient.Close() }()

	fmt.Println("Ensuring Milvus collection...")
	repo := milvus.NewRepository(milvusClient, cfg.Embedding.Dimension)
	if err := repo.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure milvus collection: %v", err)
	}
	fmt.Println("Milvus collection ready.")

	// 4. 清空查询向量缓存，避免集合或模型变更后命中旧向量
	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		log.Fatalf("failed to init redis: %v", err)
	}
	defer func() { _ = redisClient.Close() }()

	fmt.Println("Invalidating cached query embeddings...")
	if err := redis.NewCache(redisClient).InvalidateEmbeddings(ctx); err != nil {
		log.Fatalf("failed to invalidate embedding cache: %v", err)
	}
	fmt.Println("Embedding cache cleared.")

	fmt.Println("Bootstrap completed successfully.")
}
