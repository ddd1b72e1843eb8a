// Package chat 实现消息投递的实时通道
// fanout.go
// 核心职责：定义确认消息的扇出抽象
// 单机部署在进程内直接推给 Hub；多实例部署经 Kafka 广播后各实例推送本机连接
package chat

import (
	"context"
	"encoding/json"

	"coach_chat_server/internal/dto/respond"
)

// Fanout 确认消息扇出接口
// Coordinator 落库后调用，把已确认的消息推送给收发双方的所有在线连接
type Fanout interface {
	FanOut(ctx context.Context, msg *respond.Message) error
}

// ChannelFanout 单机模式的扇出实现：直接向本机 Hub 推送
type ChannelFanout struct {
	hub *Hub
}

// NewChannelFanout 创建单机扇出实例
func NewChannelFanout(hub *Hub) *ChannelFanout {
	return &ChannelFanout{hub: hub}
}

// FanOut 向发送者和接收者双方的房间广播 new 事件
// 发送者自己的其他在线设备也要收到回显，客户端按消息 id 去重
func (f *ChannelFanout) FanOut(ctx context.Context, msg *respond.Message) error {
	payload, err := json.Marshal(respond.WsPush{
		Event:   respond.WsEventNew,
		Message: msg,
	})
	if err != nil {
		return err
	}
	f.hub.Broadcast(msg.SenderId, payload)
	if msg.ReceiverId != msg.SenderId {
		f.hub.Broadcast(msg.ReceiverId, payload)
	}
	return nil
}
