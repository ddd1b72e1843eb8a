// Package model 定义数据库实体模型
// 本文件定义私聊消息模型，消息一经写入不再修改
package model

import "time"

// Message 消息模型
// 对应数据库 message 表，训练师和学员之间的私聊消息记录
type Message struct {
	// Id 消息唯一标识，雪花算法生成的 int64
	// 同一存储节点内严格递增，是客户端去重的唯一依据
	Id int64 `gorm:"column:id;primaryKey;autoIncrement:false;type:bigint;comment:消息雪花ID"`

	// SenderId 发送者用户 ID（账号系统分配）
	SenderId int64 `gorm:"column:sender_id;index:idx_sender_receiver;not null;comment:发送者ID"`

	// ReceiverId 接收者用户 ID
	ReceiverId int64 `gorm:"column:receiver_id;index:idx_receiver_sender;not null;comment:接收者ID"`

	// Content 消息文本内容，语音消息时为 NULL
	Content *string `gorm:"column:content;type:text;comment:消息内容"`

	// AudioUrl 语音文件地址，由上传服务预先生成；文本消息时为 NULL
	// Content 和 AudioUrl 不能同时为空，创建时校验
	AudioUrl *string `gorm:"column:audio_url;type:varchar(255);comment:语音url"`

	// SentAt 服务端落库时间，与 Id 在同一把锁下生成，保证与 Id 同序
	SentAt time.Time `gorm:"column:sent_at;index;not null;comment:发送时间"`

	// CreatedAt gorm 自动维护的创建时间
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}
