// Package service 提供业务逻辑层
// 本文件定义 Service 层接口，Handler 层依赖接口便于测试时替换为桩实现
package service

import (
	"context"

	"coach_chat_server/internal/dto/respond"
)

// DeliveryService 消息投递接口
type DeliveryService interface {
	// Submit 校验、落库并向收发双方的在线连接扇出一条消息
	Submit(ctx context.Context, senderId, receiverId int64, content, audioUrl *string) (*respond.Message, error)
}

// HistoryService 历史消息查询接口
type HistoryService interface {
	// GetHistory 游标分页查询两个用户之间的消息，按 id 升序返回
	GetHistory(ctx context.Context, userId, peerId int64, limit int, beforeId int64) ([]respond.Message, error)
}
