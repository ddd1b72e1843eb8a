package chatclient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client 私聊客户端门面
// 持有两条传输通道和各会话的对账器，推送分发循环按对端用户路由消息
type Client struct {
	userId int64
	rt     RealtimeTransport
	fb     FallbackTransport
	sender *Sender
	cache  *Cache // 可为 nil，此时不做本地缓存

	mu    sync.Mutex
	convs map[int64]*Conversation
	done  chan struct{}

	closeOnce sync.Once
}

// Conversation 与单个对端的会话视图
type Conversation struct {
	client *Client
	peerId int64
	rec    *Reconciler
}

// Option 客户端可选配置
type Option func(*clientOptions)

type clientOptions struct {
	ackTimeout time.Duration
	cache      *Cache
}

// WithAckTimeout 覆盖实时确认等待上限
func WithAckTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.ackTimeout = d }
}

// WithCache 启用本地消息缓存
func WithCache(cache *Cache) Option {
	return func(o *clientOptions) { o.cache = cache }
}

// NewClient 创建客户端并启动推送分发循环
func NewClient(userId int64, rt RealtimeTransport, fb FallbackTransport, opts ...Option) *Client {
	options := clientOptions{ackTimeout: DefaultAckTimeout}
	for _, opt := range opts {
		opt(&options)
	}
	c := &Client{
		userId: userId,
		rt:     rt,
		fb:     fb,
		sender: NewSender(rt, fb, options.ackTimeout),
		cache:  options.cache,
		convs:  make(map[int64]*Conversation),
		done:   make(chan struct{}),
	}
	go c.dispatchLoop()
	return c
}

// Conversation 获取（必要时创建）与 peerId 的会话视图
// 新建时先用本地缓存渲染，随后调用方应以 Refresh 拉取最新历史
func (c *Client) Conversation(peerId int64) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.convs[peerId]; ok {
		return conv
	}
	conv := &Conversation{client: c, peerId: peerId, rec: NewReconciler()}
	if c.cache != nil {
		cached, err := c.cache.Load(c.userId, peerId)
		if err != nil {
			zap.L().Warn("读取本地缓存失败", zap.Int64("peerId", peerId), zap.Error(err))
		} else {
			conv.rec.LoadHistory(cached)
		}
	}
	c.convs[peerId] = conv
	return conv
}

// lookup 在分发循环中按对端查找已打开的会话
func (c *Client) lookup(peerId int64) (*Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.convs[peerId]
	return conv, ok
}

// Close 关闭所有会话视图和实时连接，幂等
// 在途操作允许完成，但结果不会再写入已关闭的视图
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		for _, conv := range c.convs {
			conv.rec.Close()
		}
		c.mu.Unlock()
		err = c.rt.Close()
	})
	return err
}

// dispatchLoop 推送分发循环：按对端用户找到会话并合并消息
// 没有打开对应会话时推送被丢弃，下次打开会话由历史拉取补齐
func (c *Client) dispatchLoop() {
	for {
		select {
		case msg, ok := <-c.rt.Pushes():
			if !ok {
				return
			}
			peerId := msg.SenderId
			if peerId == c.userId {
				// 自己另一台设备发出的回声
				peerId = msg.ReceiverId
			}
			if conv, ok := c.lookup(peerId); ok {
				conv.rec.AddPush(*msg)
				c.persist(conv)
			}
		case <-c.done:
			return
		}
	}
}

// persist 将会话的已确认消息写回本地缓存
func (c *Client) persist(conv *Conversation) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(c.userId, conv.peerId, conv.rec.Confirmed()); err != nil {
		zap.L().Warn("写入本地缓存失败", zap.Int64("peerId", conv.peerId), zap.Error(err))
	}
}

// Send 发送一条消息
// 先登记乐观条目，再经选择器走实时或兜底通道；成功后原地替换为确认消息，
// 失败则标记 failed 留待手动重试。返回本地标识和终态结果。
func (conv *Conversation) Send(ctx context.Context, content, audioUrl *string) (string, *Message, error) {
	draft := Draft{ReceiverId: conv.peerId, Content: content, AudioUrl: audioUrl}
	localId := uuid.NewString()
	conv.rec.AddPending(localId, draft)

	msg, err := conv.client.sender.Send(ctx, draft)
	if err != nil {
		conv.rec.Fail(localId, err)
		return localId, nil, err
	}
	conv.rec.Resolve(localId, *msg)
	conv.client.persist(conv)
	return localId, msg, nil
}

// Retry 手动重试一条失败消息：移除失败条目并重新走完整发送流程
// 若原次实时发送实际已成功，重试可能产生重复落库（服务端不做幂等去重）
func (conv *Conversation) Retry(ctx context.Context, localId string) (string, *Message, error) {
	draft, ok := conv.rec.TakeFailed(localId)
	if !ok {
		return "", nil, ErrNoFailedEntry
	}
	return conv.Send(ctx, draft.Content, draft.AudioUrl)
}

// Refresh 拉取最新一页历史并合并进视图，再写回本地缓存
func (conv *Conversation) Refresh(ctx context.Context, limit int) error {
	messages, err := conv.client.fb.History(ctx, conv.peerId, limit, 0)
	if err != nil {
		return err
	}
	conv.rec.LoadHistory(messages)
	conv.client.persist(conv)
	return nil
}

// LoadOlder 向上翻页：拉取 beforeId 之前的一页历史并合并
func (conv *Conversation) LoadOlder(ctx context.Context, limit int, beforeId int64) error {
	messages, err := conv.client.fb.History(ctx, conv.peerId, limit, beforeId)
	if err != nil {
		return err
	}
	conv.rec.LoadHistory(messages)
	conv.client.persist(conv)
	return nil
}

// Entries 返回会话当前视图快照
func (conv *Conversation) Entries() []Entry {
	return conv.rec.Entries()
}
