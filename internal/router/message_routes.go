package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要 JWT 认证）
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("message")
	{
		messageGroup.POST("/send", rt.handlers.Message.SendMessage)
		messageGroup.GET("/history", rt.handlers.Message.GetHistory)
	}
}
