// Package delivery 实现消息投递协调器
// 无论请求来自实时通道还是 HTTP 兜底通道，落库和扇出都走这里的 Submit，
// 这是唯一的持久化路径
package delivery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"coach_chat_server/internal/dao/mysql"
	myredis "coach_chat_server/internal/dao/redis"
	"coach_chat_server/internal/dto/respond"
	"coach_chat_server/internal/model"
	"coach_chat_server/internal/service/chat"
	"coach_chat_server/pkg/errorx"
)

// Service 消息投递协调器
// 依赖全部通过构造函数注入，不读取任何全局状态，便于用假注册表单测 Submit
type Service struct {
	messageRepo mysql.MessageRepository
	fanout      chat.Fanout
	cache       myredis.AsyncCacheService // 可为 nil，表示不做缓存失效
}

// NewService 创建投递协调器
func NewService(messageRepo mysql.MessageRepository, fanout chat.Fanout, cache myredis.AsyncCacheService) *Service {
	return &Service{
		messageRepo: messageRepo,
		fanout:      fanout,
		cache:       cache,
	}
}

// Submit 校验、落库并向双方扇出一条消息
// 返回已确认的消息给直接调用方（ack 或 HTTP 响应都用它）
//
// 注意：这里不对客户端重试做去重——同一逻辑消息到达两次会落两行，
// 重试安全性由客户端保证：收到确定性成功确认后绝不重发
func (s *Service) Submit(ctx context.Context, senderId, receiverId int64, content, audioUrl *string) (*respond.Message, error) {
	if receiverId <= 0 {
		return nil, errorx.ErrMissingReceiver
	}
	if isBlank(content) && isBlank(audioUrl) {
		return nil, errorx.ErrEmptyMessage
	}

	msg, err := s.messageRepo.Create(senderId, receiverId, content, audioUrl)
	if err != nil {
		return nil, err
	}

	rsp := toRespond(msg)

	// 扇出失败不影响返回：消息已落库，调用方会拿到确认，
	// 错过推送的另一端下次拉历史时能补齐
	if s.fanout != nil {
		if err := s.fanout.FanOut(ctx, rsp); err != nil {
			zap.L().Error("消息扇出失败", zap.Int64("id", rsp.Id), zap.Error(err))
		}
	}

	// 异步失效双方会话的历史记录缓存
	if s.cache != nil {
		pattern := historyCachePattern(senderId, receiverId)
		s.cache.SubmitTask(func() {
			if err := s.cache.DeleteByPattern(context.Background(), pattern); err != nil {
				zap.L().Error("历史缓存失效失败", zap.String("pattern", pattern), zap.Error(err))
			}
		})
	}

	return rsp, nil
}

// toRespond 将存储行转换为线上格式
func toRespond(m *model.Message) *respond.Message {
	return &respond.Message{
		Id:         m.Id,
		SenderId:   m.SenderId,
		ReceiverId: m.ReceiverId,
		Content:    m.Content,
		AudioUrl:   m.AudioUrl,
		SentAt:     m.SentAt,
	}
}

// historyCachePattern 生成会话历史缓存的键模式
// 键里用户对按大小排序，保证 (A,B) 和 (B,A) 指向同一组缓存
func historyCachePattern(userOneId, userTwoId int64) string {
	if userOneId > userTwoId {
		userOneId, userTwoId = userTwoId, userOneId
	}
	return fmt.Sprintf("history_%d_%d_*", userOneId, userTwoId)
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

// 编译期确认 Service 满足接入层的 Deliverer 接口
var _ chat.Deliverer = (*Service)(nil)
