package chatclient

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache 会话消息的本地 SQLite 缓存
// 每次刷新整体覆盖对应会话的缓存行，打开会话时先用缓存渲染首屏
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS message_cache (
	owner_id    INTEGER NOT NULL,
	peer_id     INTEGER NOT NULL,
	id          INTEGER NOT NULL,
	sender_id   INTEGER NOT NULL,
	receiver_id INTEGER NOT NULL,
	content     TEXT,
	audio_url   TEXT,
	sent_at     TEXT NOT NULL,
	PRIMARY KEY (owner_id, peer_id, id)
);`

// OpenCache 打开（必要时创建）本地缓存数据库
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Save 覆盖写入一个会话的已确认消息
func (c *Cache) Save(ownerId, peerId int64, messages []Message) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM message_cache WHERE owner_id = ? AND peer_id = ?`,
		ownerId, peerId); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO message_cache
		(owner_id, peer_id, id, sender_id, receiver_id, content, audio_url, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, msg := range messages {
		if _, err := stmt.Exec(ownerId, peerId, msg.Id, msg.SenderId, msg.ReceiverId,
			msg.Content, msg.AudioUrl, msg.SentAt.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load 读取一个会话缓存的消息，id 升序
func (c *Cache) Load(ownerId, peerId int64) ([]Message, error) {
	rows, err := c.db.Query(`SELECT id, sender_id, receiver_id, content, audio_url, sent_at
		FROM message_cache WHERE owner_id = ? AND peer_id = ? ORDER BY id ASC`,
		ownerId, peerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var sentAt string
		if err := rows.Scan(&msg.Id, &msg.SenderId, &msg.ReceiverId,
			&msg.Content, &msg.AudioUrl, &sentAt); err != nil {
			return nil, err
		}
		msg.SentAt, err = time.Parse(time.RFC3339Nano, sentAt)
		if err != nil {
			return nil, fmt.Errorf("parse cached sent_at: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Close 关闭缓存数据库
func (c *Cache) Close() error {
	return c.db.Close()
}
