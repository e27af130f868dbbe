// Package router provides document QA service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/handler"
)

// New builds the gin engine with all service routes registered.
// bearerToken 为空时 API 路由不做认证。
func New(qaHandler *handler.QAHandler, bearerToken string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	// 健康检查与指标不经过认证
	engine.GET("/healthz", qaHandler.Healthz)
	engine.GET("/metrics", qaHandler.Metrics)

	v1 := engine.Group("/v1", handler.BearerAuth(bearerToken))
	{
		v1.POST("/ask", qaHandler.Ask)
		v1.GET("/stats", qaHandler.Stats)
	}

	logger.Info("HTTP routes registered")
	return engine
}
