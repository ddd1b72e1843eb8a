// Package message 提供消息数据访问层的具体实现
package message

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"coach_chat_server/internal/dao/mysql/internal"
	"coach_chat_server/internal/model"
	"coach_chat_server/pkg/errorx"
	"coach_chat_server/pkg/util/snowflake"
)

// messageRepository MessageRepository 接口的实现
type messageRepository struct {
	db *gorm.DB

	// mu 串行化 Id 和 SentAt 的分配
	// 雪花 Id 本身并发安全，但 SentAt 必须与 Id 同序，
	// 两者要在同一临界区内取值
	mu sync.Mutex
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *messageRepository {
	return &messageRepository{db: db}
}

// Create 校验并写入一条新消息
// Content 和 AudioUrl 同时为空时直接拒绝，不落库
func (r *messageRepository) Create(senderId, receiverId int64, content, audioUrl *string) (*model.Message, error) {
	if isBlank(content) && isBlank(audioUrl) {
		return nil, errorx.ErrEmptyMessage
	}

	r.mu.Lock()
	id := snowflake.GenerateID()
	sentAt := time.Now()
	r.mu.Unlock()

	msg := &model.Message{
		Id:         id,
		SenderId:   senderId,
		ReceiverId: receiverId,
		Content:    content,
		AudioUrl:   audioUrl,
		SentAt:     sentAt,
	}
	if err := r.db.Create(msg).Error; err != nil {
		return nil, internal.WrapDBError(err, "创建消息")
	}
	return msg, nil
}

// FindBetween 查询两个用户之间的消息（双向），按 id 倒序取最新一页
func (r *messageRepository) FindBetween(userOneId, userTwoId int64, limit int, beforeId int64) ([]model.Message, error) {
	var messages []model.Message
	query := r.db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userOneId, userTwoId, userTwoId, userOneId)
	if beforeId > 0 {
		query = query.Where("id < ?", beforeId)
	}
	if err := query.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, internal.WrapDBErrorf(err, "查询消息 user1=%d user2=%d", userOneId, userTwoId)
	}
	return messages, nil
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
