package constants

import "time"

const (
	CHANNEL_SIZE = 100 // websocket 连接发送通道大小

	// HISTORY_MAX_LIMIT 单次历史消息查询条数硬上限
	// 超过该值的 limit 会被收敛，避免响应体过大
	HISTORY_MAX_LIMIT = 200

	// HISTORY_DEFAULT_LIMIT 未指定 limit 时的默认查询条数
	HISTORY_DEFAULT_LIMIT = 50

	REDIS_TIMEOUT = 1 // redis 缓存过期时间 (分钟)

	// ACK_TIMEOUT 客户端等待实时通道应用层确认的默认时限
	ACK_TIMEOUT = 10 * time.Second
)
