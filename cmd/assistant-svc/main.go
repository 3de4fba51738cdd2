// Package main SOP 助手 API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sop-assistant-api/internal/application/answer"
	"sop-assistant-api/internal/application/chat"
	"sop-assistant-api/internal/application/expansion"
	"sop-assistant-api/internal/application/experts"
	"sop-assistant-api/internal/application/ingest"
	appretrieval "sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/config"
	"sop-assistant-api/internal/infrastructure/embedding"
	"sop-assistant-api/internal/infrastructure/llm"
	"sop-assistant-api/internal/infrastructure/messaging"
	"sop-assistant-api/internal/infrastructure/persistence/milvus"
	"sop-assistant-api/internal/infrastructure/persistence/postgres"
	"sop-assistant-api/internal/infrastructure/persistence/redis"
	"sop-assistant-api/internal/interfaces/http/handler"
	"sop-assistant-api/internal/interfaces/http/router"
	einoobs "sop-assistant-api/internal/observability/eino"
	"sop-assistant-api/pkg/logger"
	"sop-assistant-api/pkg/tracer"

	"github.com/joho/godotenv"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting assistant-svc",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: Version,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SampleRate:     cfg.Observability.Tracing.SampleRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 初始化 Eino 全局 callbacks（指标/追踪/日志）
	einoobs.Init()

	// 数据层
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

	// Embedding 链路
	einoEmbedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Fatal(ctx, "failed to init embedder", err)
	}
	embedProvider := embedding.NewProvider(einoEmbedder, cache, &cfg.Embedding)

	// 向量索引
	milvusRepo := milvus.NewRepository(milvusClient, cfg.Embedding.Dimension)
	vectorIndex := milvus.NewVectorIndexAdapter(milvusRepo)

	// 检索编排
	expander := expansion.NewExpander(expansion.DefaultTable())
	orchestrator := appretrieval.NewOrchestrator(expander, embedProvider, vectorIndex, appretrieval.Policy{
		MaxVariants:      cfg.Retrieval.MaxVariants,
		PerVariantFactor: cfg.Retrieval.PerVariantFactor,
		PerVariantCap:    cfg.Retrieval.PerVariantCap,
		FinalFactor:      cfg.Retrieval.FinalFactor,
		FinalCap:         cfg.Retrieval.FinalCap,
		VariantTimeout:   cfg.Retrieval.VariantTimeout,
	})

	// LLM
	llmFactory := llm.NewEinoFactory(cfg)
	chatModel, err := llmFactory.Default(ctx)
	if err != nil {
		logger.Fatal(ctx, "failed to init chat model", err)
	}

	// 专家
	catalog := experts.DefaultCatalog()
	expertRouter := experts.NewRouter(catalog, cfg.Experts.MaxAutoSelected, cfg.Experts.FallbackExpert)
	consultant := experts.NewConsultant(catalog, expertRouter, chatModel)

	// 回答组装
	composer := answer.NewComposer(chatModel)

	// 仓储
	sessionRepo := postgres.NewChatSessionRepository(pgClient)
	turnRepo := postgres.NewChatTurnRepository(pgClient)
	docRepo := postgres.NewDocumentRepository(pgClient)

	// 应用服务
	txMgr := postgres.NewTxManager(pgClient)
	chatService := chat.NewService(orchestrator, consultant, composer, expertRouter, sessionRepo, turnRepo, txMgr)

	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	producer := messaging.NewProducer(redisClient.Redis(), int64(maxLen))
	indexer := appretrieval.NewIndexer(embedProvider, vectorIndex,
		cfg.Embedding.BatchSize, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	ingestService := ingest.NewService(docRepo, producer, indexer)

	// HTTP 路由
	r := router.New(cfg, router.Deps{
		Health:      handler.NewHealthHandler(pgClient, redisClient, milvusClient),
		Ask:         handler.NewAskHandler(chatService),
		Session:     handler.NewSessionHandler(chatService),
		Document:    handler.NewDocumentHandler(ingestService),
		Expert:      handler.NewExpertHandler(catalog, expertRouter),
		Retrieval:   handler.NewRetrievalHandler(orchestrator),
		RateLimiter: redis.NewRateLimiter(redisClient),
	})

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
