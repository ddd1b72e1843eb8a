package chatclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeRealtime 可编程的实时通道
type fakeRealtime struct {
	ack     *AckResult // 非 nil 时立即投递该确认
	sendErr error
	pushes  chan *Message
	sent    int
}

func (f *fakeRealtime) Send(ctx context.Context, draft Draft) (<-chan AckResult, error) {
	f.sent++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	ch := make(chan AckResult, 1)
	if f.ack != nil {
		ch <- *f.ack
	}
	return ch, nil
}

func (f *fakeRealtime) Pushes() <-chan *Message {
	if f.pushes == nil {
		f.pushes = make(chan *Message)
	}
	return f.pushes
}

func (f *fakeRealtime) Close() error { return nil }

// fakeFallback 可编程的兜底通道
type fakeFallback struct {
	msg     *Message
	err     error
	history []Message
	sent    int
}

func (f *fakeFallback) Send(ctx context.Context, draft Draft) (*Message, error) {
	f.sent++
	if f.err != nil {
		return nil, f.err
	}
	return f.msg, nil
}

func (f *fakeFallback) History(ctx context.Context, peerId int64, limit int, beforeId int64) ([]Message, error) {
	return f.history, nil
}

// firedTimer 立即到期的定时器，模拟确认截止时间先于确认到达
func firedTimer(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// frozenTimer 永不到期的定时器
func frozenTimer(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func TestSenderAckWithinDeadline(t *testing.T) {
	confirmed := msgWith(101, "hi")
	rt := &fakeRealtime{ack: &AckResult{Message: &confirmed}}
	fb := &fakeFallback{}
	sender := NewSender(rt, fb, time.Second)
	sender.timeAfter = frozenTimer

	content := "hi"
	msg, err := sender.Send(context.Background(), Draft{ReceiverId: 2, Content: &content})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Id != 101 {
		t.Fatalf("expected confirmed id 101, got %d", msg.Id)
	}
	if fb.sent != 0 {
		t.Fatal("acked send must not touch the fallback path")
	}
}

func TestSenderTimeoutFallsBackOnce(t *testing.T) {
	confirmed := msgWith(102, "hi")
	rt := &fakeRealtime{} // 确认永远不来
	fb := &fakeFallback{msg: &confirmed}
	sender := NewSender(rt, fb, time.Second)
	sender.timeAfter = firedTimer

	content := "hi"
	msg, err := sender.Send(context.Background(), Draft{ReceiverId: 2, Content: &content})
	if err != nil {
		t.Fatalf("fallback should succeed: %v", err)
	}
	if msg.Id != 102 {
		t.Fatalf("expected fallback-confirmed id 102, got %d", msg.Id)
	}
	if fb.sent != 1 {
		t.Fatalf("exactly one fallback attempt expected, got %d", fb.sent)
	}
}

func TestSenderConnClosedFallsBack(t *testing.T) {
	confirmed := msgWith(103, "hi")

	// 发送时连接已断开
	rt := &fakeRealtime{sendErr: ErrConnClosed}
	fb := &fakeFallback{msg: &confirmed}
	sender := NewSender(rt, fb, time.Second)
	sender.timeAfter = frozenTimer

	content := "hi"
	msg, err := sender.Send(context.Background(), Draft{ReceiverId: 2, Content: &content})
	if err != nil || msg.Id != 103 {
		t.Fatalf("expected fallback success, got msg=%v err=%v", msg, err)
	}

	// 等待确认期间连接断开
	rt2 := &fakeRealtime{ack: &AckResult{Err: ErrConnClosed}}
	fb2 := &fakeFallback{msg: &confirmed}
	sender2 := NewSender(rt2, fb2, time.Second)
	sender2.timeAfter = frozenTimer

	msg, err = sender2.Send(context.Background(), Draft{ReceiverId: 2, Content: &content})
	if err != nil || msg.Id != 103 {
		t.Fatalf("expected fallback success, got msg=%v err=%v", msg, err)
	}
	if fb2.sent != 1 {
		t.Fatalf("exactly one fallback attempt expected, got %d", fb2.sent)
	}
}

func TestSenderServerRejectionIsTerminal(t *testing.T) {
	// 服务端明确拒绝（如校验失败）不走兜底，重发结果相同
	rt := &fakeRealtime{ack: &AckResult{Err: errors.New("send rejected: 消息内容和语音不能同时为空")}}
	fb := &fakeFallback{msg: &Message{Id: 999}}
	sender := NewSender(rt, fb, time.Second)
	sender.timeAfter = frozenTimer

	_, err := sender.Send(context.Background(), Draft{ReceiverId: 2})
	if err == nil {
		t.Fatal("server rejection must surface as an error")
	}
	if fb.sent != 0 {
		t.Fatal("definitive rejection must not trigger the fallback path")
	}
}

func TestSenderFallbackFailureIsTerminal(t *testing.T) {
	rt := &fakeRealtime{}
	fb := &fakeFallback{err: errors.New("server unreachable")}
	sender := NewSender(rt, fb, time.Second)
	sender.timeAfter = firedTimer

	content := "hi"
	_, err := sender.Send(context.Background(), Draft{ReceiverId: 2, Content: &content})
	if err == nil {
		t.Fatal("failed fallback must surface as an error")
	}
	if fb.sent != 1 {
		t.Fatalf("no automatic retry after fallback failure, attempts=%d", fb.sent)
	}
}

func TestSenderEveryOutcomeIsTerminal(t *testing.T) {
	// 状态机全域性：任一组合下 Send 都在受控时间内返回确定结果
	confirmed := msgWith(1, "m")
	cases := []struct {
		name    string
		rt      *fakeRealtime
		fb      *fakeFallback
		timer   func(time.Duration) <-chan time.Time
		wantErr bool
	}{
		{"ack success", &fakeRealtime{ack: &AckResult{Message: &confirmed}}, &fakeFallback{}, frozenTimer, false},
		{"ack rejection", &fakeRealtime{ack: &AckResult{Err: errors.New("rejected")}}, &fakeFallback{}, frozenTimer, true},
		{"timeout, fallback ok", &fakeRealtime{}, &fakeFallback{msg: &confirmed}, firedTimer, false},
		{"timeout, fallback fails", &fakeRealtime{}, &fakeFallback{err: errors.New("down")}, firedTimer, true},
		{"disconnected, fallback ok", &fakeRealtime{sendErr: ErrConnClosed}, &fakeFallback{msg: &confirmed}, frozenTimer, false},
	}
	for _, tc := range cases {
		sender := NewSender(tc.rt, tc.fb, time.Second)
		sender.timeAfter = tc.timer
		content := "m"
		done := make(chan error, 1)
		go func() {
			_, err := sender.Send(context.Background(), Draft{ReceiverId: 2, Content: &content})
			done <- err
		}()
		select {
		case err := <-done:
			if (err != nil) != tc.wantErr {
				t.Fatalf("%s: unexpected outcome err=%v", tc.name, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s: send never reached a terminal state", tc.name)
		}
	}
}
