package chatclient

import (
	"context"
	"errors"
)

// ErrConnClosed 实时连接不可用（未连接或已断开）
// 选择器据此切换到兜底通道，与服务端返回的业务错误区分开
var ErrConnClosed = errors.New("realtime connection closed")

// ErrNoFailedEntry 按 localId 找不到可重试的失败条目
var ErrNoFailedEntry = errors.New("no failed entry for local id")

// AckResult 一次实时发送的应用层确认结果
// Err 为 ErrConnClosed 表示连接层故障；其余非空 Err 是服务端的明确拒绝
type AckResult struct {
	Message *Message
	Err     error
}

// RealtimeTransport 实时通道
// Send 发出一条消息并返回承载确认结果的通道，确认到达或连接断开时写入
// Pushes 返回服务端推送的新消息流
type RealtimeTransport interface {
	Send(ctx context.Context, draft Draft) (<-chan AckResult, error)
	Pushes() <-chan *Message
	Close() error
}

// FallbackTransport 请求响应兜底通道
type FallbackTransport interface {
	Send(ctx context.Context, draft Draft) (*Message, error)
	History(ctx context.Context, peerId int64, limit int, beforeId int64) ([]Message, error)
}
