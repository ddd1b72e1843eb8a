// Package chat 实现消息投递的实时通道
// conn.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 升级 HTTP 连接为 WebSocket 并注册到 Hub
// 2. 读协程解析客户端事件，send 事件走 Coordinator 并回 ack
// 3. 写协程消费发送通道，附带 ping/pong 心跳淘汰死连接
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"coach_chat_server/internal/dto/request"
	"coach_chat_server/internal/dto/respond"
	"coach_chat_server/pkg/constants"
	"coach_chat_server/pkg/errorx"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// UserConn 表示一条 WebSocket 客户端连接
// 同一用户的多端连接各自持有独立的 UserConn
type UserConn struct {
	Conn   *websocket.Conn
	UserId int64
	Send   chan []byte // 出站数据通道，ack 和推送都经由此通道保证写出有序

	// mu 保护 closed 与 Send 的关闭；所有写入都走 trySend，
	// 广播快照取到连接后才发生的断开不会写到已关闭的通道
	mu     sync.Mutex
	closed bool
}

// trySend 非阻塞投递一帧到发送通道
// 连接已注销或通道已满时丢弃并返回 false
func (c *UserConn) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// shutdown 标记注销并关闭发送通道，幂等
// 与 trySend 持同一把锁，保证不会向已关闭的通道写入
func (c *UserConn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Deliverer 消息投递协调器接口
// 由 delivery.Service 实现；实时通道和 HTTP 兜底通道走同一个 Submit
type Deliverer interface {
	Submit(ctx context.Context, senderId, receiverId int64, content, audioUrl *string) (*respond.Message, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 允许跨域握手，前端与服务端不同源
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway WebSocket 接入层
// 持有 Hub 和 Coordinator，负责把连接上的事件翻译为投递调用
type Gateway struct {
	hub          *Hub
	delivery     Deliverer
	channelSize  int
	pingInterval time.Duration
	pongWait     time.Duration
}

// NewGateway 创建 WebSocket 接入层
func NewGateway(hub *Hub, delivery Deliverer, channelSize, pingIntervalS, pongWaitS int) *Gateway {
	if channelSize <= 0 {
		channelSize = constants.CHANNEL_SIZE
	}
	if pongWaitS <= 0 {
		pongWaitS = 60
	}
	if pingIntervalS <= 0 || pingIntervalS >= pongWaitS {
		pingIntervalS = pongWaitS * 9 / 10
	}
	return &Gateway{
		hub:          hub,
		delivery:     delivery,
		channelSize:  channelSize,
		pingInterval: time.Duration(pingIntervalS) * time.Second,
		pongWait:     time.Duration(pongWaitS) * time.Second,
	}
}

// HandleConn 升级连接并启动读写协程
// userId 来自握手阶段的令牌校验，连接加入该用户的房间
func (g *Gateway) HandleConn(c *gin.Context, userId int64) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("ws upgrade failed", zap.Error(err))
		return
	}
	client := &UserConn{
		Conn:   conn,
		UserId: userId,
		Send:   make(chan []byte, g.channelSize),
	}
	g.hub.Join(client)
	go g.readPump(client)
	go g.writePump(client)
}

// readPump 读取并分发客户端事件
// 任何读错误都视为连接断开：从 Hub 注销并关闭底层连接
func (g *Gateway) readPump(client *UserConn) {
	defer func() {
		g.hub.Leave(client)
		_ = client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	_ = client.Conn.SetReadDeadline(time.Now().Add(g.pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(g.pongWait))
	})

	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Warn("ws read error", zap.Int64("userId", client.UserId), zap.Error(err))
			}
			return
		}

		var event request.WsEvent
		if err := json.Unmarshal(data, &event); err != nil {
			zap.L().Error("ws 事件解析失败", zap.Error(err))
			continue
		}

		switch event.Event {
		case request.WsEventSend:
			g.handleSend(client, event)
		default:
			zap.L().Warn("未知的 ws 事件", zap.String("event", event.Event))
		}
	}
}

// handleSend 处理 send 事件：投递消息并按 ack_id 回确认
// 投递成功与否都必须回 ack，客户端靠确认或超时决定是否走兜底通道
func (g *Gateway) handleSend(client *UserConn, event request.WsEvent) {
	var req request.SendMessageRequest
	if err := json.Unmarshal(event.Data, &req); err != nil {
		g.sendAck(client, respond.WsAck{
			Event: respond.WsEventAck,
			AckId: event.AckId,
			Ok:    false,
			Error: errorx.ErrInvalidParam.Msg,
		})
		return
	}

	msg, err := g.delivery.Submit(context.Background(), client.UserId, req.ReceiverId, req.Content, req.AudioUrl)
	if err != nil {
		var codeErr *errorx.CodeError
		errMsg := errorx.ErrServerBusy.Msg
		if errors.As(err, &codeErr) {
			errMsg = codeErr.Msg
		}
		g.sendAck(client, respond.WsAck{
			Event: respond.WsEventAck,
			AckId: event.AckId,
			Ok:    false,
			Error: errMsg,
		})
		return
	}

	g.sendAck(client, respond.WsAck{
		Event:   respond.WsEventAck,
		AckId:   event.AckId,
		Ok:      true,
		Message: msg,
	})
}

// sendAck 将确认写入连接的发送通道
// ack 与推送共用 Send 通道，确保对同一连接的写出顺序一致
func (g *Gateway) sendAck(client *UserConn, ack respond.WsAck) {
	payload, err := json.Marshal(ack)
	if err != nil {
		zap.L().Error("ack 序列化失败", zap.Error(err))
		return
	}
	if !client.trySend(payload) {
		zap.L().Warn("ws 发送通道已满或连接已注销，ack 被丢弃", zap.Int64("userId", client.UserId))
	}
}

// writePump 消费发送通道并写出，周期性发送 ping
// Send 通道关闭（Hub.Leave）或写出错时退出并关闭连接
func (g *Gateway) writePump(client *UserConn) {
	ticker := time.NewTicker(g.pingInterval)
	defer func() {
		ticker.Stop()
		_ = client.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				zap.L().Warn("ws write error", zap.Int64("userId", client.UserId), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
