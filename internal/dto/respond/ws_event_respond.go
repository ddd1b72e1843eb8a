package respond

// WebSocket 服务端事件类型
const (
	WsEventAck = "ack" // 对客户端 send 事件的应用层确认
	WsEventNew = "new" // 新消息推送，投递给双方的所有在线连接
)

// WsAck send 事件的确认信封
// Ok 为 true 时携带落库后的消息；为 false 时携带错误描述
type WsAck struct {
	Event   string   `json:"event"`
	AckId   string   `json:"ack_id"`
	Ok      bool     `json:"ok"`
	Message *Message `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// WsPush 新消息推送信封
type WsPush struct {
	Event   string   `json:"event"`
	Message *Message `json:"message"`
}
