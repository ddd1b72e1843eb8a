//go:build integration

// 需要本地 MySQL（configs/config.toml）：go test -tags integration ./test/dao/
package dao

import (
	"testing"

	dao "coach_chat_server/internal/dao/mysql"
)

func strPtr(s string) *string { return &s }

func TestCreateAndFindBetween(t *testing.T) {
	repos := dao.Init()

	first, err := repos.Message.Create(9001, 9002, strPtr("integration hello"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := repos.Message.Create(9002, 9001, strPtr("integration reply"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.Id <= first.Id {
		t.Fatalf("ids must be strictly increasing: %d then %d", first.Id, second.Id)
	}
	if second.SentAt.Before(first.SentAt) {
		t.Fatalf("sentAt must be monotonic with id: %v then %v", first.SentAt, second.SentAt)
	}

	rows, err := repos.Message.FindBetween(9001, 9002, 10, 0)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("expected at least 2 rows, got %d", len(rows))
	}
	// 仓储按 id 倒序返回最新一页
	if rows[0].Id < rows[1].Id {
		t.Fatalf("repository must return newest-first: %d before %d", rows[0].Id, rows[1].Id)
	}
}

func TestCreateRejectsEmptyBody(t *testing.T) {
	repos := dao.Init()
	if _, err := repos.Message.Create(9001, 9002, nil, nil); err == nil {
		t.Fatal("empty body must be rejected before touching the database")
	}
}
