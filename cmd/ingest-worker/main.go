// Package main SOP 文档索引执行器入口（ingest-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sop-assistant-api/internal/application/ingest"
	appretrieval "sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/config"
	"sop-assistant-api/internal/infrastructure/embedding"
	"sop-assistant-api/internal/infrastructure/messaging"
	"sop-assistant-api/internal/infrastructure/persistence/milvus"
	"sop-assistant-api/internal/infrastructure/persistence/postgres"
	"sop-assistant-api/internal/infrastructure/persistence/redis"
	einoobs "sop-assistant-api/internal/observability/eino"
	"sop-assistant-api/pkg/logger"
	"sop-assistant-api/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName:    "ingest-worker",
		ServiceVersion: cfg.App.Version,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SampleRate:     cfg.Observability.Tracing.SampleRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	einoobs.Init()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to init milvus", err)
	}
	defer func() { _ = milvusClient.Close() }()

	cache := redis.NewCache(redisClient)

	einoEmbedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Fatal(ctx, "failed to init embedder", err)
	}
	embedProvider := embedding.NewProvider(einoEmbedder, cache, &cfg.Embedding)

	milvusRepo := milvus.NewRepository(milvusClient, cfg.Embedding.Dimension)
	vectorIndex := milvus.NewVectorIndexAdapter(milvusRepo)

	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	docRepo := postgres.NewDocumentRepository(pgClient)
	producer := messaging.NewProducer(redisClient.Redis(), int64(maxLen))
	indexer := appretrieval.NewIndexer(embedProvider, vectorIndex,
		cfg.Embedding.BatchSize, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	ingestService := ingest.NewService(docRepo, producer, indexer)

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamSOPIngest,
		Group:        messaging.ConsumerGroupIngestWorker,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})

	consumer.RegisterHandler(messaging.TypeDocumentIngest, func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.IngestJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		return ingestService.ProcessIngest(msgCtx, &payload)
	})

	consumer.RegisterHandler(messaging.TypeDocumentRemove, func(msgCtx context.Context, msg *messaging.Message) error {
		var payload messaging.RemoveJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		return ingestService.ProcessRemove(msgCtx, &payload)
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	go consumer.MonitorDLQ(ctx, 100)

	log := logger.FromContext(ctx)
	log.Info("ingest-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("ingest-worker shutting down")
	consumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
