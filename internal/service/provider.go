// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"coach_chat_server/internal/dao/mysql"
	myredis "coach_chat_server/internal/dao/redis"
	"coach_chat_server/internal/service/chat"
	"coach_chat_server/internal/service/delivery"
	"coach_chat_server/internal/service/history"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过此结构访问业务层
type Services struct {
	Delivery DeliveryService
	History  HistoryService
}

// NewServices 创建并注入所有 Service 实例
// fanout 由 main 按运行模式选择（进程内 / Kafka），cache 可为 nil
func NewServices(repos *mysql.Repositories, fanout chat.Fanout, cache myredis.AsyncCacheService) *Services {
	return &Services{
		Delivery: delivery.NewService(repos.Message, fanout, cache),
		History:  history.NewService(repos.Message, cache),
	}
}
