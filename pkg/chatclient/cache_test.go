package chatclient

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCacheSaveLoad(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	content := "hi"
	audio := "/audio/a.mp3"
	messages := []Message{
		{Id: 1, SenderId: 1, ReceiverId: 2, Content: &content, SentAt: time.Unix(100, 0).UTC()},
		{Id: 2, SenderId: 2, ReceiverId: 1, AudioUrl: &audio, SentAt: time.Unix(200, 0).UTC()},
	}
	if err := cache.Save(1, 2, messages); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := cache.Load(1, 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(loaded))
	}
	if loaded[0].Id != 1 || loaded[1].Id != 2 {
		t.Fatalf("load must return id ascending: %d, %d", loaded[0].Id, loaded[1].Id)
	}
	if loaded[0].Content == nil || *loaded[0].Content != "hi" {
		t.Fatalf("content not preserved: %v", loaded[0].Content)
	}
	if loaded[1].Content != nil {
		t.Fatal("nil content must stay nil")
	}
	if loaded[1].AudioUrl == nil || *loaded[1].AudioUrl != "/audio/a.mp3" {
		t.Fatalf("audio url not preserved: %v", loaded[1].AudioUrl)
	}
	if !loaded[1].SentAt.Equal(time.Unix(200, 0)) {
		t.Fatalf("sent_at not preserved: %v", loaded[1].SentAt)
	}
}

func TestCacheSaveOverwritesConversation(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	content := "old"
	if err := cache.Save(1, 2, []Message{{Id: 1, SenderId: 1, ReceiverId: 2, Content: &content, SentAt: time.Now().UTC()}}); err != nil {
		t.Fatal(err)
	}
	// 另一个会话的缓存互不影响
	other := "other"
	if err := cache.Save(1, 3, []Message{{Id: 9, SenderId: 1, ReceiverId: 3, Content: &other, SentAt: time.Now().UTC()}}); err != nil {
		t.Fatal(err)
	}

	fresh := "new"
	if err := cache.Save(1, 2, []Message{
		{Id: 2, SenderId: 2, ReceiverId: 1, Content: &fresh, SentAt: time.Now().UTC()},
		{Id: 3, SenderId: 1, ReceiverId: 2, Content: &fresh, SentAt: time.Now().UTC()},
	}); err != nil {
		t.Fatal(err)
	}

	loaded, err := cache.Load(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 || loaded[0].Id != 2 {
		t.Fatalf("save must overwrite the conversation snapshot: %+v", loaded)
	}

	otherLoaded, err := cache.Load(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(otherLoaded) != 1 || otherLoaded[0].Id != 9 {
		t.Fatalf("other conversation must be untouched: %+v", otherLoaded)
	}
}

func TestCacheLoadEmptyConversation(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	loaded, err := cache.Load(7, 8)
	if err != nil {
		t.Fatalf("load on empty cache: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no messages, got %d", len(loaded))
	}
}
