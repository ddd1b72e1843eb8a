// Package mysql 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
package mysql

import (
	"coach_chat_server/internal/model"
)

// MessageRepository 消息数据访问接口
// 消息是追加写入的：只有 Create 和查询，没有更新和删除
type MessageRepository interface {
	// Create 校验并写入一条新消息，服务端在此分配 Id 和 SentAt
	// Content 和 AudioUrl 同时为空时返回参数校验错误，不产生任何落库行
	// Id 分配是串行的：并发写入不会拿到相同的 Id，SentAt 与 Id 同序
	Create(senderId, receiverId int64, content, audioUrl *string) (*model.Message, error)

	// FindBetween 查询两个用户之间的消息（无序对，双向）
	// beforeId 非 0 时只返回 id < beforeId 的消息
	// 按 id 倒序返回最多 limit 条（即最新的一页），调用方负责翻转为正序
	FindBetween(userOneId, userTwoId int64, limit int, beforeId int64) ([]model.Message, error)
}
