// Package chatclient 实现私聊客户端核心
// 核心职责：
// 1. 实时通道发送 + 请求响应通道兜底的传输选择
// 2. 乐观消息与服务端确认/推送的状态对账
// 3. 会话消息的本地缓存，用于离线首屏展示
package chatclient

import "time"

// Message 服务端确认后的消息，字段与线上协议一一对应
// Id 由服务端分配，同一存储内严格递增，是去重的唯一依据
type Message struct {
	Id         int64     `json:"id"`
	SenderId   int64     `json:"sender_id"`
	ReceiverId int64     `json:"receiver_id"`
	Content    *string   `json:"content"`
	AudioUrl   *string   `json:"audio_url"`
	SentAt     time.Time `json:"sent_at"`
}

// Draft 待发送的消息草稿
// Content 和 AudioUrl 至少需要一个，由服务端做最终校验
type Draft struct {
	ReceiverId int64   `json:"receiver_id"`
	Content    *string `json:"content,omitempty"`
	AudioUrl   *string `json:"audio_url,omitempty"`
}
