package history

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"coach_chat_server/internal/model"
)

// fakeMessageRepo 预置消息行的内存仓储
// FindBetween 与真实实现一致：无序对匹配、id 倒序、最多 limit 条
type fakeMessageRepo struct {
	rows      []model.Message
	lastLimit int
	calls     int
}

func (f *fakeMessageRepo) Create(senderId, receiverId int64, content, audioUrl *string) (*model.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) FindBetween(userOneId, userTwoId int64, limit int, beforeId int64) ([]model.Message, error) {
	f.calls++
	f.lastLimit = limit
	var matched []model.Message
	for i := len(f.rows) - 1; i >= 0; i-- {
		m := f.rows[i]
		pair := (m.SenderId == userOneId && m.ReceiverId == userTwoId) ||
			(m.SenderId == userTwoId && m.ReceiverId == userOneId)
		if !pair {
			continue
		}
		if beforeId != 0 && m.Id >= beforeId {
			continue
		}
		matched = append(matched, m)
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

// fakeCache 内存缓存，键不存在时返回 redis.Nil
type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string]string)} }

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeCache) GetOrError(ctx context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.data = make(map[string]string)
	return nil
}

func (f *fakeCache) SubmitTask(action func()) { action() }

func seedRepo(n int) *fakeMessageRepo {
	repo := &fakeMessageRepo{}
	for i := 1; i <= n; i++ {
		content := "m"
		sender, receiver := int64(1), int64(2)
		if i%2 == 0 {
			sender, receiver = 2, 1
		}
		repo.rows = append(repo.rows, model.Message{
			Id:         int64(i),
			SenderId:   sender,
			ReceiverId: receiver,
			Content:    &content,
			SentAt:     time.Unix(int64(i), 0),
		})
	}
	return repo
}

func TestGetHistoryOldestFirst(t *testing.T) {
	svc := NewService(seedRepo(10), nil)

	rsp, err := svc.GetHistory(context.Background(), 1, 2, 5, 0)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(rsp) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(rsp))
	}
	// 最新一页（id 6..10），翻转为最旧在前
	for i, msg := range rsp {
		if want := int64(6 + i); msg.Id != want {
			t.Fatalf("position %d: expected id %d, got %d", i, want, msg.Id)
		}
	}
}

func TestGetHistoryBeforeId(t *testing.T) {
	svc := NewService(seedRepo(10), nil)

	rsp, err := svc.GetHistory(context.Background(), 1, 2, 3, 6)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(rsp) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(rsp))
	}
	for i, msg := range rsp {
		if msg.Id >= 6 {
			t.Fatalf("position %d: id %d must be < beforeId", i, msg.Id)
		}
	}
	if rsp[0].Id != 3 || rsp[2].Id != 5 {
		t.Fatalf("expected ids 3..5, got %d..%d", rsp[0].Id, rsp[2].Id)
	}
}

func TestGetHistorySymmetric(t *testing.T) {
	repo := seedRepo(8)
	svc := NewService(repo, nil)

	forward, err := svc.GetHistory(context.Background(), 1, 2, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	backward, err := svc.GetHistory(context.Background(), 2, 1, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(forward) != len(backward) {
		t.Fatalf("result sets differ in size: %d vs %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].Id != backward[i].Id {
			t.Fatalf("position %d: %d vs %d", i, forward[i].Id, backward[i].Id)
		}
	}
}

func TestGetHistoryClampsLimit(t *testing.T) {
	repo := seedRepo(3)
	svc := NewService(repo, nil)

	if _, err := svc.GetHistory(context.Background(), 1, 2, 500, 0); err != nil {
		t.Fatal(err)
	}
	if repo.lastLimit != 200 {
		t.Fatalf("limit should be clamped to 200, repo saw %d", repo.lastLimit)
	}

	if _, err := svc.GetHistory(context.Background(), 1, 2, 0, 0); err != nil {
		t.Fatal(err)
	}
	if repo.lastLimit != 50 {
		t.Fatalf("zero limit should default to 50, repo saw %d", repo.lastLimit)
	}
}

func TestGetHistoryCachesFirstPageOnly(t *testing.T) {
	repo := seedRepo(4)
	cache := newFakeCache()
	svc := NewService(repo, cache)

	if _, err := svc.GetHistory(context.Background(), 1, 2, 50, 0); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 1 {
		t.Fatalf("first call must hit the repo, calls=%d", repo.calls)
	}

	rsp, err := svc.GetHistory(context.Background(), 1, 2, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if repo.calls != 1 {
		t.Fatalf("second first-page call should be served from cache, calls=%d", repo.calls)
	}
	if len(rsp) != 4 {
		t.Fatalf("cached result truncated: %d", len(rsp))
	}

	// 带游标的翻页不走缓存
	if _, err := svc.GetHistory(context.Background(), 1, 2, 50, 3); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 2 {
		t.Fatalf("paged call must bypass the cache, calls=%d", repo.calls)
	}
}
