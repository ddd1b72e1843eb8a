// Package chat 实现消息投递的实时通道
// kafka_fanout.go
// 核心职责：多实例部署下的扇出实现
// 1. FanOut 把已确认的消息发布到 Kafka 主题（落库早已在 Coordinator 完成）
// 2. 消费循环从主题读取全量确认消息，推送给本机 Hub 上的在线连接
// 3. 每个实例各自消费、各自推送本机连接，实现跨实例的多端在线
package chat

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"coach_chat_server/internal/dto/respond"
)

// KafkaFanout 多实例模式的扇出实现
// 注意：消息只经 Kafka 传递一次，持久化路径不变——Coordinator 落库后才扇出，
// 消费端收到的都是已确认消息，只做推送不再写库
type KafkaFanout struct {
	client *KafkaClient
	hub    *Hub
	cancel context.CancelFunc
}

// NewKafkaFanout 创建 Kafka 扇出实例
func NewKafkaFanout(client *KafkaClient, hub *Hub) *KafkaFanout {
	return &KafkaFanout{client: client, hub: hub}
}

// FanOut 把已确认消息发布到 Kafka 主题
// 以发送者 ID 为 key，同一发送者的消息落在同一分区保持有序
func (f *KafkaFanout) FanOut(ctx context.Context, msg *respond.Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := []byte(strconv.FormatInt(msg.SenderId, 10))
	return f.client.SendMessage(ctx, key, value)
}

// Start 启动消费循环，阻塞直到 Stop 或读取出错不可恢复
// 应在独立协程中调用
func (f *KafkaFanout) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("kafka fanout panic", zap.Any("recover", r))
		}
	}()

	for {
		kafkaMessage, err := f.client.Consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // Stop 触发的正常退出
			}
			zap.L().Error("kafka read error", zap.Error(err))
			continue
		}

		var msg respond.Message
		if err := json.Unmarshal(kafkaMessage.Value, &msg); err != nil {
			zap.L().Error("kafka 消息反序列化失败", zap.Error(err))
			continue
		}

		payload, err := json.Marshal(respond.WsPush{
			Event:   respond.WsEventNew,
			Message: &msg,
		})
		if err != nil {
			zap.L().Error(err.Error())
			continue
		}

		// 只推本机连接，其他实例由各自的消费循环负责
		f.hub.Broadcast(msg.SenderId, payload)
		if msg.ReceiverId != msg.SenderId {
			f.hub.Broadcast(msg.ReceiverId, payload)
		}
	}
}

// Stop 停止消费循环
func (f *KafkaFanout) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}
