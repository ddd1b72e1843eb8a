// Package history 实现会话历史查询
// 纯读路径：游标分页 + Redis 旁路缓存，条数收敛到硬上限
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"coach_chat_server/internal/dao/mysql"
	myredis "coach_chat_server/internal/dao/redis"
	"coach_chat_server/internal/dto/respond"
	"coach_chat_server/pkg/constants"
)

// Service 历史消息查询服务
type Service struct {
	messageRepo mysql.MessageRepository
	cache       myredis.AsyncCacheService // 可为 nil，表示不走缓存
}

// NewService 创建历史查询服务
func NewService(messageRepo mysql.MessageRepository, cache myredis.AsyncCacheService) *Service {
	return &Service{
		messageRepo: messageRepo,
		cache:       cache,
	}
}

// GetHistory 查询 userId 与 peerId 之间的历史消息
// beforeId 非 0 时只返回 id < beforeId 的消息（向前翻页）
// limit 收敛到 [1, 200]，结果按 id 升序（最旧在前）返回
// (A,B) 和 (B,A) 的查询结果一致
func (s *Service) GetHistory(ctx context.Context, userId, peerId int64, limit int, beforeId int64) ([]respond.Message, error) {
	if limit <= 0 {
		limit = constants.HISTORY_DEFAULT_LIMIT
	}
	if limit > constants.HISTORY_MAX_LIMIT {
		limit = constants.HISTORY_MAX_LIMIT
	}

	// 只缓存首屏（无游标）查询，翻页命中率太低不值得占内存
	cacheKey := ""
	if s.cache != nil && beforeId == 0 {
		cacheKey = historyCacheKey(userId, peerId, limit)
		if cached, err := s.cache.GetOrError(ctx, cacheKey); err == nil {
			var rsp []respond.Message
			if err := json.Unmarshal([]byte(cached), &rsp); err == nil {
				return rsp, nil
			}
			zap.L().Error("历史缓存解析失败，回源数据库", zap.String("key", cacheKey))
		} else if !errors.Is(err, goredis.Nil) {
			zap.L().Error("redis get key error", zap.Error(err))
		}
	}

	// 仓储层按 id 倒序取最新一页，这里翻转为最旧在前
	rows, err := s.messageRepo.FindBetween(userId, peerId, limit, beforeId)
	if err != nil {
		return nil, err
	}

	rspList := make([]respond.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		m := rows[i]
		rspList = append(rspList, respond.Message{
			Id:         m.Id,
			SenderId:   m.SenderId,
			ReceiverId: m.ReceiverId,
			Content:    m.Content,
			AudioUrl:   m.AudioUrl,
			SentAt:     m.SentAt,
		})
	}

	if cacheKey != "" {
		if data, err := json.Marshal(rspList); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), time.Minute*constants.REDIS_TIMEOUT); err != nil {
				zap.L().Error("历史缓存写入失败", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	return rspList, nil
}

// historyCacheKey 生成首屏历史缓存键
// 用户对按大小排序，与 delivery 侧的失效模式保持一致
func historyCacheKey(userOneId, userTwoId int64, limit int) string {
	if userOneId > userTwoId {
		userOneId, userTwoId = userTwoId, userOneId
	}
	return fmt.Sprintf("history_%d_%d_%d", userOneId, userTwoId, limit)
}
