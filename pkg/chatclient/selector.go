package chatclient

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"coach_chat_server/pkg/constants"
)

// SendState 单条消息发送的状态机状态
type SendState string

const (
	StateNotSent     SendState = "not_sent"
	StateAwaitingAck SendState = "awaiting_ack"
	StateAcked       SendState = "acked"
	StateFallingBack SendState = "falling_back"
	StateFailed      SendState = "failed"
)

// DefaultAckTimeout 实时确认的等待上限
const DefaultAckTimeout = constants.ACK_TIMEOUT

// Sender 传输选择器
// 每条消息先走实时通道，在确认超时或连接断开时切换兜底通道，
// 且每次用户发起的发送只兜底一次，不做自动循环重试。
// 服务端通过确认明确拒绝（如参数校验失败）直接终止，不走兜底。
type Sender struct {
	rt         RealtimeTransport
	fb         FallbackTransport
	ackTimeout time.Duration

	// 测试中替换以控制时间推进
	timeAfter func(d time.Duration) <-chan time.Time
}

// NewSender 创建传输选择器，ackTimeout 非正时取默认值
func NewSender(rt RealtimeTransport, fb FallbackTransport, ackTimeout time.Duration) *Sender {
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	return &Sender{
		rt:         rt,
		fb:         fb,
		ackTimeout: ackTimeout,
		timeAfter:  time.After,
	}
}

// Send 发送一条消息，走完状态机并返回终态结果
// 确认定时器和确认本身在 select 中竞争，先到者决定迁移方向
func (s *Sender) Send(ctx context.Context, draft Draft) (*Message, error) {
	ackCh, err := s.rt.Send(ctx, draft)
	if err != nil {
		// 连接层立刻失败，直接兜底
		if !errors.Is(err, ErrConnClosed) {
			return nil, err
		}
		return s.fallback(ctx, draft, StateNotSent, err)
	}

	select {
	case res := <-ackCh:
		if res.Err == nil {
			return res.Message, nil
		}
		if errors.Is(res.Err, ErrConnClosed) {
			return s.fallback(ctx, draft, StateAwaitingAck, res.Err)
		}
		// 服务端明确拒绝，重发不会有不同结果
		return nil, res.Err
	case <-s.timeAfter(s.ackTimeout):
		return s.fallback(ctx, draft, StateAwaitingAck, context.DeadlineExceeded)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fallback 执行唯一一次兜底发送
// 注意：若实时发送实际已成功但确认丢失，兜底会产生一条重复落库，
// 服务端不做幂等去重，这是已知取舍
func (s *Sender) fallback(ctx context.Context, draft Draft, from SendState, cause error) (*Message, error) {
	zap.L().Warn("实时发送未确认，切换兜底通道",
		zap.String("state", string(from)),
		zap.Error(cause))
	msg, err := s.fb.Send(ctx, draft)
	if err != nil {
		return nil, err
	}
	return msg, nil
}
