package request

// SendMessageRequest 发送消息请求
// HTTP 兜底通道和 WebSocket send 事件共用同一结构
// Content 和 AudioUrl 至少要有其一，由 Coordinator 统一校验
type SendMessageRequest struct {
	ReceiverId int64   `json:"receiver_id" binding:"required"` // 接收者用户 ID
	Content    *string `json:"content"`                        // 文本内容，可空
	AudioUrl   *string `json:"audio_url"`                      // 语音地址，可空
}
