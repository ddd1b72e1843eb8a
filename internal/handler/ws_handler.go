// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接的建立
package handler

import (
	"net/http"

	"coach_chat_server/internal/service/chat"
	"coach_chat_server/pkg/errorx"
	"coach_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler WebSocket 接入处理器
type WsHandler struct {
	gateway *chat.Gateway
}

// NewWsHandler 创建 WebSocket 处理器
func NewWsHandler(gateway *chat.Gateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// Connect 建立 WebSocket 连接
// GET /ws?token=xxx
// 浏览器的 WebSocket API 无法自定义 Header，令牌经查询参数携带；
// 校验通过后连接加入该用户的房间，开始收发
func (h *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "缺少令牌",
		})
		return
	}

	claims, err := jwt.ParseToken(token)
	if err != nil || claims.Subject != "access_token" {
		zap.L().Warn("ws 握手令牌校验失败", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  "Token 已过期或无效",
		})
		return
	}

	h.gateway.HandleConn(c, claims.UserID)
}
