// Package chat 实现消息投递的实时通道
// hub.go
// 核心职责：会话注册表
// 1. 按用户维护在线连接集合，同一用户可有多条连接（多端在线）
// 2. Join/Leave 管理连接生命周期，Leave 幂等
// 3. Broadcast 向某用户当前的全部在线连接做尽力而为的推送
package chat

import (
	"sync"

	"go.uber.org/zap"
)

// Hub 会话注册表
// rooms 以用户 ID 为键，值为该用户当前的连接集合；
// 连接集合只会被连接建立/断开的 handler 修改，读写锁保护并发访问
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*UserConn]struct{}
}

// NewHub 创建会话注册表
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[int64]map[*UserConn]struct{}),
	}
}

// Join 将连接注册到用户的房间
func (h *Hub) Join(conn *UserConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[conn.UserId]
	if !ok {
		room = make(map[*UserConn]struct{})
		h.rooms[conn.UserId] = room
	}
	room[conn] = struct{}{}
	zap.L().Info("ws 连接加入", zap.Int64("userId", conn.UserId), zap.Int("conns", len(room)))
}

// Leave 将连接从其房间移除并关闭发送通道，幂等
// 连接断开后重复调用不会产生任何副作用
func (h *Hub) Leave(conn *UserConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[conn.UserId]
	if !ok {
		return
	}
	if _, ok := room[conn]; !ok {
		return
	}
	delete(room, conn)
	conn.shutdown()
	if len(room) == 0 {
		delete(h.rooms, conn.UserId)
	}
	zap.L().Info("ws 连接退出", zap.Int64("userId", conn.UserId), zap.Int("conns", len(room)))
}

// Broadcast 向用户当前的全部在线连接投递事件，尽力而为
// 以调用时刻的连接快照为准：广播开始后才加入的连接不保证收到；
// 没有在线连接的用户不会收到任何东西（没有离线队列，兜底靠 HTTP 通道）
func (h *Hub) Broadcast(userId int64, payload []byte) {
	h.mu.RLock()
	conns := make([]*UserConn, 0, len(h.rooms[userId]))
	for conn := range h.rooms[userId] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		// 快照取出后连接可能已注销，trySend 内部与注销互斥，
		// 迟到的投递被丢弃而不会写到已关闭的通道
		if !conn.trySend(payload) {
			zap.L().Warn("ws 发送通道已满或连接已注销，推送被丢弃", zap.Int64("userId", userId))
		}
	}
}

// ConnectionCount 返回用户当前的在线连接数
func (h *Hub) ConnectionCount(userId int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userId])
}

// Close 注销所有连接，用于服务关闭
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userId, room := range h.rooms {
		for conn := range room {
			conn.shutdown()
		}
		delete(h.rooms, userId)
	}
}
