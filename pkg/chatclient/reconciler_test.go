package chatclient

import (
	"errors"
	"testing"
	"time"
)

func msgWith(id int64, content string) Message {
	return Message{
		Id: id, SenderId: 1, ReceiverId: 2,
		Content: &content, SentAt: time.Unix(id, 0),
	}
}

func confirmedIds(entries []Entry) []int64 {
	var ids []int64
	for _, e := range entries {
		if e.State == EntryConfirmed {
			ids = append(ids, e.Message.Id)
		}
	}
	return ids
}

func TestReconcilerOptimisticLifecycle(t *testing.T) {
	rec := NewReconciler()
	content := "hi"
	rec.AddPending("local-1", Draft{ReceiverId: 2, Content: &content})

	entries := rec.Entries()
	if len(entries) != 1 || entries[0].State != EntryPending {
		t.Fatalf("optimistic entry should render immediately: %+v", entries)
	}

	rec.Resolve("local-1", msgWith(101, "hi"))
	entries = rec.Entries()
	if len(entries) != 1 {
		t.Fatalf("resolve must replace, not append: %d entries", len(entries))
	}
	if entries[0].State != EntryConfirmed || entries[0].Message.Id != 101 {
		t.Fatalf("unexpected entry after resolve: %+v", entries[0])
	}
}

func TestReconcilerDedupIdempotence(t *testing.T) {
	rec := NewReconciler()
	content := "hi"
	rec.AddPending("local-1", Draft{ReceiverId: 2, Content: &content})

	// 确认和推送（例如发送方另一台设备的回声）携带同一条 id=101 的消息
	rec.Resolve("local-1", msgWith(101, "hi"))
	rec.AddPush(msgWith(101, "hi"))

	entries := rec.Entries()
	if len(entries) != 1 {
		t.Fatalf("same id twice must yield exactly one entry, got %d", len(entries))
	}

	// 推送先到、确认后到也一样
	rec2 := NewReconciler()
	rec2.AddPending("local-2", Draft{ReceiverId: 2, Content: &content})
	rec2.AddPush(msgWith(101, "hi"))
	rec2.Resolve("local-2", msgWith(101, "hi"))
	if ids := confirmedIds(rec2.Entries()); len(ids) != 1 || ids[0] != 101 {
		t.Fatalf("push-then-resolve left duplicates: %v", ids)
	}
}

func TestReconcilerOrdering(t *testing.T) {
	rec := NewReconciler()
	rec.AddPush(msgWith(5, "e"))
	rec.AddPush(msgWith(2, "b"))
	rec.LoadHistory([]Message{msgWith(1, "a"), msgWith(2, "b"), msgWith(3, "c")})

	content := "pending"
	rec.AddPending("local-1", Draft{ReceiverId: 2, Content: &content})

	entries := rec.Entries()
	ids := confirmedIds(entries)
	want := []int64{1, 2, 3, 5}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
	// 未确认条目永远挂在已确认序列之后
	if last := entries[len(entries)-1]; last.State != EntryPending {
		t.Fatalf("pending entry must trail confirmed ones: %+v", last)
	}
}

func TestReconcilerFailedEntryRetry(t *testing.T) {
	rec := NewReconciler()
	content := "hi"
	rec.AddPending("local-1", Draft{ReceiverId: 2, Content: &content})
	rec.Fail("local-1", errors.New("network down"))

	entries := rec.Entries()
	if len(entries) != 1 || entries[0].State != EntryFailed {
		t.Fatalf("failed entry should remain visible: %+v", entries)
	}
	if entries[0].Err == nil {
		t.Fatal("failed entry should carry the last error")
	}

	draft, ok := rec.TakeFailed("local-1")
	if !ok || draft.Content == nil || *draft.Content != "hi" {
		t.Fatalf("TakeFailed should return the original draft: %+v ok=%v", draft, ok)
	}
	if len(rec.Entries()) != 0 {
		t.Fatal("taken entry must leave the view")
	}

	// pending 态不能被取走
	rec.AddPending("local-2", Draft{ReceiverId: 2, Content: &content})
	if _, ok := rec.TakeFailed("local-2"); ok {
		t.Fatal("pending entry must not be retryable")
	}
}

func TestReconcilerClosedIgnoresLateResults(t *testing.T) {
	rec := NewReconciler()
	content := "hi"
	rec.AddPending("local-1", Draft{ReceiverId: 2, Content: &content})
	rec.Close()

	// 视图关闭后迟到的确认和推送都不再写入
	rec.Resolve("local-1", msgWith(101, "hi"))
	rec.AddPush(msgWith(102, "late"))
	rec.LoadHistory([]Message{msgWith(103, "later")})

	if ids := confirmedIds(rec.Entries()); len(ids) != 0 {
		t.Fatalf("closed reconciler must ignore mutations, got %v", ids)
	}
}
