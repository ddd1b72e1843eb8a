package respond

import "time"

// Message 消息线上格式
// HTTP 响应、WebSocket 确认和推送共用同一结构，
// 字段为 NULL 时序列化为 null 而非空字符串
type Message struct {
	Id         int64     `json:"id"`
	SenderId   int64     `json:"sender_id"`
	ReceiverId int64     `json:"receiver_id"`
	Content    *string   `json:"content"`
	AudioUrl   *string   `json:"audio_url"`
	SentAt     time.Time `json:"sent_at"`
}
