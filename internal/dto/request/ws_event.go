package request

import "encoding/json"

// WebSocket 客户端事件类型
const (
	WsEventSend = "send" // 客户端发送消息，要求应用层确认
)

// WsEvent WebSocket 入站事件信封
// AckId 由客户端生成，服务端原样带回，用于把确认和发送请求关联起来
type WsEvent struct {
	Event string          `json:"event"`
	AckId string          `json:"ack_id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}
