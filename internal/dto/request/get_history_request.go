package request

// GetHistoryRequest 获取历史消息请求（游标分页）
// BeforeId 为 0 表示从最新一条开始取；非 0 时只返回 id < BeforeId 的消息
type GetHistoryRequest struct {
	PeerId   int64 `form:"peer_id" binding:"required"` // 对端用户 ID
	Limit    int   `form:"limit"`                      // 条数，超过上限会被收敛到 200
	BeforeId int64 `form:"before_id"`                  // 分页游标
}
