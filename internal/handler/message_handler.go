// Package handler 提供 HTTP 请求处理器
// 本文件处理消息发送（HTTP 兜底通道）和历史记录查询
package handler

import (
	"coach_chat_server/internal/dto/request"
	"coach_chat_server/internal/infrastructure/middleware"
	"coach_chat_server/internal/service"
	"coach_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息相关的 HTTP 处理器
type MessageHandler struct {
	delivery service.DeliveryService
	history  service.HistoryService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(delivery service.DeliveryService, history service.HistoryService) *MessageHandler {
	return &MessageHandler{
		delivery: delivery,
		history:  history,
	}
}

// SendMessage 发送消息（HTTP 兜底通道）
// POST /message/send
// 实时通道不可用或确认超时的客户端经此路径重发；
// 落库和扇出与实时通道完全一致，都走 Coordinator.Submit
func (h *MessageHandler) SendMessage(c *gin.Context) {
	senderId, ok := middleware.GetUserId(c)
	if !ok {
		HandleError(c, errorx.ErrUnauthorized)
		return
	}

	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	msg, err := h.delivery.Submit(c.Request.Context(), senderId, req.ReceiverId, req.Content, req.AudioUrl)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, msg)
}

// GetHistory 获取与某个用户的历史消息
// GET /message/history?peer_id=xxx&limit=50&before_id=0
// 结果按 id 升序（最旧在前），before_id 非 0 时向前翻页
func (h *MessageHandler) GetHistory(c *gin.Context) {
	userId, ok := middleware.GetUserId(c)
	if !ok {
		HandleError(c, errorx.ErrUnauthorized)
		return
	}

	var req request.GetHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	data, err := h.history.GetHistory(c.Request.Context(), userId, req.PeerId, req.Limit, req.BeforeId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
