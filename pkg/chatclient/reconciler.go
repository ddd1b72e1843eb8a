package chatclient

import (
	"sort"
	"sync"
)

// EntryState 会话条目的状态
type EntryState string

const (
	EntryPending   EntryState = "pending"   // 本地乐观条目，等待确认
	EntryConfirmed EntryState = "confirmed" // 已拿到服务端 id
	EntryFailed    EntryState = "failed"    // 兜底也失败，等待手动重试或丢弃
)

// Entry 会话视图中的一个条目
// Confirmed 态携带完整 Message；Pending/Failed 态携带 LocalId 和草稿
type Entry struct {
	State   EntryState
	LocalId string  // pending/failed 态有效
	Draft   Draft   // pending/failed 态有效
	Message Message // confirmed 态有效
	Err     error   // failed 态有效
}

// localEntry 尚未确认的本地条目
type localEntry struct {
	localId string
	draft   Draft
	failed  bool
	err     error
}

// Reconciler 单个会话的状态对账器
// 已确认消息按服务端 id 升序维护并以 id 去重；
// 未确认的本地条目按提交顺序挂在尾部，确认时原地替换而非追加。
// 会话视图关闭后所有变更调用都变为空操作，迟到的网络结果不会写入已卸载的视图。
type Reconciler struct {
	mu        sync.Mutex
	confirmed []Message
	seen      map[int64]struct{}
	locals    []*localEntry
	byLocal   map[string]*localEntry
	closed    bool
}

// NewReconciler 创建空会话对账器
func NewReconciler() *Reconciler {
	return &Reconciler{
		seen:    make(map[int64]struct{}),
		byLocal: make(map[string]*localEntry),
	}
}

// AddPending 记录一条本地乐观消息，立即可见
func (r *Reconciler) AddPending(localId string, draft Draft) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if _, ok := r.byLocal[localId]; ok {
		return
	}
	entry := &localEntry{localId: localId, draft: draft}
	r.locals = append(r.locals, entry)
	r.byLocal[localId] = entry
}

// Resolve 用服务端确认的消息替换对应的本地条目
// 若该 id 已经通过推送先行插入，则只移除本地条目，不会产生重复
func (r *Reconciler) Resolve(localId string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.removeLocal(localId)
	r.insertConfirmed(msg)
}

// Fail 将本地条目标记为失败，条目保留可见以便手动重试
func (r *Reconciler) Fail(localId string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	entry, ok := r.byLocal[localId]
	if !ok {
		return
	}
	entry.failed = true
	entry.err = err
}

// AddPush 合并一条推送消息，按 id 去重后插入有序位置
// 发送方自己另一台设备收到的回声推送在这里自然去重
func (r *Reconciler) AddPush(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.insertConfirmed(msg)
}

// LoadHistory 合并一批历史消息（旧到新），逐条去重
func (r *Reconciler) LoadHistory(messages []Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for _, msg := range messages {
		r.insertConfirmed(msg)
	}
}

// TakeFailed 取出失败条目的草稿并将其移出视图，用于手动重试
func (r *Reconciler) TakeFailed(localId string) (Draft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Draft{}, false
	}
	entry, ok := r.byLocal[localId]
	if !ok || !entry.failed {
		return Draft{}, false
	}
	r.removeLocal(localId)
	return entry.draft, true
}

// Entries 返回当前视图快照：已确认消息按 id 升序，本地条目按提交顺序尾随
func (r *Reconciler) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0, len(r.confirmed)+len(r.locals))
	for _, msg := range r.confirmed {
		entries = append(entries, Entry{State: EntryConfirmed, Message: msg})
	}
	for _, local := range r.locals {
		state := EntryPending
		if local.failed {
			state = EntryFailed
		}
		entries = append(entries, Entry{
			State:   state,
			LocalId: local.localId,
			Draft:   local.draft,
			Err:     local.err,
		})
	}
	return entries
}

// Confirmed 返回已确认消息的快照（id 升序），用于写本地缓存
func (r *Reconciler) Confirmed() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.confirmed))
	copy(out, r.confirmed)
	return out
}

// Close 关闭视图，之后的变更调用全部忽略
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// insertConfirmed 按 id 去重后插入有序位置，调用方持锁
func (r *Reconciler) insertConfirmed(msg Message) {
	if _, ok := r.seen[msg.Id]; ok {
		return
	}
	r.seen[msg.Id] = struct{}{}
	pos := sort.Search(len(r.confirmed), func(i int) bool {
		return r.confirmed[i].Id >= msg.Id
	})
	r.confirmed = append(r.confirmed, Message{})
	copy(r.confirmed[pos+1:], r.confirmed[pos:])
	r.confirmed[pos] = msg
}

// removeLocal 从尾部和索引中移除本地条目，调用方持锁
func (r *Reconciler) removeLocal(localId string) {
	if _, ok := r.byLocal[localId]; !ok {
		return
	}
	delete(r.byLocal, localId)
	for i, entry := range r.locals {
		if entry.localId == localId {
			r.locals = append(r.locals[:i], r.locals[i+1:]...)
			break
		}
	}
}
