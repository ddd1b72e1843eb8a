package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 与服务端约定的事件类型
const (
	wsEventSend = "send"
	wsEventAck  = "ack"
	wsEventNew  = "new"
)

// wsEnvelope 实时通道事件信封，入站出站共用
type wsEnvelope struct {
	Event   string          `json:"event"`
	AckId   string          `json:"ack_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Ok      bool            `json:"ok,omitempty"`
	Message *Message        `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// WsTransport 基于 WebSocket 的实时通道实现
// 发送方生成 ack_id 并登记等待表，读循环按 ack_id 派发确认；
// 连接断开时向所有等待者投递 ErrConnClosed
type WsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex // websocket 写不允许并发

	mu      sync.Mutex
	pending map[string]chan AckResult
	closed  bool

	pushes chan *Message
}

// DialWs 建立实时连接并启动读循环
// url 形如 ws://host:port/ws?token=xxx，令牌在握手阶段校验
func DialWs(ctx context.Context, url string) (*WsTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	t := &WsTransport{
		conn:    conn,
		pending: make(map[string]chan AckResult),
		pushes:  make(chan *Message, 64),
	}
	go t.readLoop()
	return t, nil
}

// Send 发出消息，返回承载确认结果的通道（容量 1，不会阻塞读循环）
func (t *WsTransport) Send(ctx context.Context, draft Draft) (<-chan AckResult, error) {
	data, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	ackId := uuid.NewString()
	envelope := wsEnvelope{Event: wsEventSend, AckId: ackId, Data: data}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	ch := make(chan AckResult, 1)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrConnClosed
	}
	t.pending[ackId] = ch
	t.mu.Unlock()

	t.writeMu.Lock()
	err = t.conn.WriteMessage(websocket.TextMessage, payload)
	t.writeMu.Unlock()
	if err != nil {
		t.mu.Lock()
		delete(t.pending, ackId)
		t.mu.Unlock()
		return nil, ErrConnClosed
	}
	return ch, nil
}

// Pushes 返回服务端推送的新消息流，连接关闭时该通道被关闭
func (t *WsTransport) Pushes() <-chan *Message {
	return t.pushes
}

// Close 关闭连接，读循环随之退出并清理等待表
func (t *WsTransport) Close() error {
	return t.conn.Close()
}

// readLoop 读循环：派发确认和推送，退出时让所有等待者失败
func (t *WsTransport) readLoop() {
	defer t.failAll()
	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		var envelope wsEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			zap.L().Warn("丢弃无法解析的服务端事件", zap.Error(err))
			continue
		}
		switch envelope.Event {
		case wsEventAck:
			t.dispatchAck(&envelope)
		case wsEventNew:
			if envelope.Message != nil {
				select {
				case t.pushes <- envelope.Message:
				default:
					zap.L().Warn("推送缓冲已满，丢弃消息",
						zap.Int64("messageId", envelope.Message.Id))
				}
			}
		}
	}
}

func (t *WsTransport) dispatchAck(envelope *wsEnvelope) {
	t.mu.Lock()
	ch, ok := t.pending[envelope.AckId]
	delete(t.pending, envelope.AckId)
	t.mu.Unlock()
	if !ok {
		return
	}
	if envelope.Ok {
		ch <- AckResult{Message: envelope.Message}
	} else {
		ch <- AckResult{Err: fmt.Errorf("send rejected: %s", envelope.Error)}
	}
}

// failAll 连接断开后通知所有未决发送，令选择器切换兜底通道
func (t *WsTransport) failAll() {
	t.mu.Lock()
	t.closed = true
	for ackId, ch := range t.pending {
		delete(t.pending, ackId)
		ch <- AckResult{Err: ErrConnClosed}
	}
	t.mu.Unlock()
	close(t.pushes)
}
