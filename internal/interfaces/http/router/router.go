// Package router 提供 HTTP 路由配置
package router

import (
	"sop-assistant-api/internal/config"
	"sop-assistant-api/internal/interfaces/http/handler"
	"sop-assistant-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps 路由器依赖的全部处理器
type Deps struct {
	Health    *handler.HealthHandler
	Ask       *handler.AskHandler
	Session   *handler.SessionHandler
	Document  *handler.DocumentHandler
	Expert    *handler.ExpertHandler
	Retrieval *handler.RetrievalHandler

	RateLimiter middleware.RateLimiter
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	deps   Deps
}

// New 创建新的路由器
func New(cfg *config.Config, deps Deps) *Router {
	// 设置 Gin 模式
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine: engine,
		cfg:    cfg,
		deps:   deps,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	// 基础中间件
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	// CORS 中间件
	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	// 追踪中间件
	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	// 指标中间件
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	// 限流中间件
	if r.cfg.Security.RateLimit.Enabled {
		r.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: r.cfg.Security.RateLimit.RequestsPerSecond,
			Burst:             r.cfg.Security.RateLimit.Burst,
		}, r.deps.RateLimiter))
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.deps.Health.Health)
	r.engine.GET("/ready", r.deps.Health.Ready)
	r.engine.GET("/live", r.deps.Health.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API v1 路由组
	v1 := r.engine.Group("/v1")
	RegisterV1Routes(v1, r.deps.Ask, r.deps.Session, r.deps.Document, r.deps.Expert, r.deps.Retrieval)
}
