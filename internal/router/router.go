// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"

	"coach_chat_server/internal/handler"
	"coach_chat_server/internal/infrastructure/middleware"
)

// Router 路由管理器，持有 Handler 聚合实例
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// WebSocket 握手在查询参数里自带令牌校验，不挂 Bearer 中间件；
// 其余接口统一走 JWT 认证
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.RegisterWebSocketRoutes(r)

	authorized := r.Group("/", middleware.JWTAuth())
	rt.RegisterMessageRoutes(authorized)
}
