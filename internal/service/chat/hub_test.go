package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"coach_chat_server/internal/dto/respond"
)

func newTestConn(userId int64) *UserConn {
	return &UserConn{UserId: userId, Send: make(chan []byte, 8)}
}

func TestHubJoinLeave(t *testing.T) {
	hub := NewHub()
	conn := newTestConn(1)

	hub.Join(conn)
	if hub.ConnectionCount(1) != 1 {
		t.Fatalf("expected 1 connection, got %d", hub.ConnectionCount(1))
	}

	hub.Leave(conn)
	if hub.ConnectionCount(1) != 0 {
		t.Fatalf("expected 0 connections after leave, got %d", hub.ConnectionCount(1))
	}
	if _, ok := <-conn.Send; ok {
		t.Fatal("send channel should be closed after leave")
	}

	// Leave 幂等：重复调用不应 panic 或二次关闭通道
	hub.Leave(conn)
}

func TestHubMultiDevice(t *testing.T) {
	hub := NewHub()
	first := newTestConn(1)
	second := newTestConn(1)
	hub.Join(first)
	hub.Join(second)

	if hub.ConnectionCount(1) != 2 {
		t.Fatalf("expected 2 connections, got %d", hub.ConnectionCount(1))
	}

	hub.Broadcast(1, []byte("payload"))
	for _, conn := range []*UserConn{first, second} {
		select {
		case data := <-conn.Send:
			if string(data) != "payload" {
				t.Fatalf("unexpected payload: %s", data)
			}
		default:
			t.Fatal("every live connection of the user must receive the broadcast")
		}
	}

	hub.Leave(first)
	hub.Broadcast(1, []byte("second"))
	select {
	case data := <-second.Send:
		if string(data) != "second" {
			t.Fatalf("unexpected payload: %s", data)
		}
	default:
		t.Fatal("remaining connection must still receive broadcasts")
	}
}

func TestHubDeliveryAfterLeaveIsDropped(t *testing.T) {
	hub := NewHub()
	conn := newTestConn(1)
	hub.Join(conn)

	// 广播先取快照再逐个投递；快照取出和投递之间连接可能断开，
	// 迟到的投递必须被丢弃而不是写到已关闭的通道
	hub.Leave(conn)
	if conn.trySend([]byte("late")) {
		t.Fatal("delivery after leave must be dropped")
	}
	hub.Broadcast(1, []byte("later"))
}

func TestHubBroadcastConcurrentWithDisconnects(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			conn := newTestConn(1)
			hub.Join(conn)
			hub.Leave(conn)
		}
	}()
	for {
		select {
		case <-done:
			return
		default:
			hub.Broadcast(1, []byte("x"))
		}
	}
}

func TestHubBroadcastToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub()
	// 没有在线连接时广播静默丢弃，没有离线队列
	hub.Broadcast(42, []byte("nobody"))
}

func TestHubBroadcastDropsWhenChannelFull(t *testing.T) {
	hub := NewHub()
	conn := &UserConn{UserId: 1, Send: make(chan []byte, 1)}
	hub.Join(conn)

	hub.Broadcast(1, []byte("one"))
	done := make(chan struct{})
	go func() {
		// 通道已满时广播不阻塞
		hub.Broadcast(1, []byte("two"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast must not block on a full send channel")
	}
}

func TestChannelFanoutReachesBothParties(t *testing.T) {
	hub := NewHub()
	senderConn := newTestConn(1)
	senderPhone := newTestConn(1)
	receiverConn := newTestConn(2)
	hub.Join(senderConn)
	hub.Join(senderPhone)
	hub.Join(receiverConn)

	content := "hi"
	msg := &respond.Message{Id: 101, SenderId: 1, ReceiverId: 2, Content: &content, SentAt: time.Now()}
	fanout := NewChannelFanout(hub)
	if err := fanout.FanOut(context.Background(), msg); err != nil {
		t.Fatalf("fanout failed: %v", err)
	}

	for _, conn := range []*UserConn{senderConn, senderPhone, receiverConn} {
		select {
		case data := <-conn.Send:
			var push respond.WsPush
			if err := json.Unmarshal(data, &push); err != nil {
				t.Fatalf("push unmarshal failed: %v", err)
			}
			if push.Event != respond.WsEventNew || push.Message.Id != 101 {
				t.Fatalf("unexpected push: %+v", push)
			}
		default:
			t.Fatalf("connection of user %d did not receive the push", conn.UserId)
		}
		// 每条连接恰好收到一次
		select {
		case <-conn.Send:
			t.Fatalf("connection of user %d received a duplicate push", conn.UserId)
		default:
		}
	}
}

func TestChannelFanoutSelfMessageDeliveredOnce(t *testing.T) {
	hub := NewHub()
	conn := newTestConn(1)
	hub.Join(conn)

	content := "note to self"
	msg := &respond.Message{Id: 7, SenderId: 1, ReceiverId: 1, Content: &content, SentAt: time.Now()}
	if err := NewChannelFanout(hub).FanOut(context.Background(), msg); err != nil {
		t.Fatalf("fanout failed: %v", err)
	}

	select {
	case <-conn.Send:
	default:
		t.Fatal("self message should be delivered")
	}
	select {
	case <-conn.Send:
		t.Fatal("sender == receiver must not be broadcast twice")
	default:
	}
}
