package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"coach_chat_server/internal/config"
	dao "coach_chat_server/internal/dao/mysql"
	myredis "coach_chat_server/internal/dao/redis"
	"coach_chat_server/internal/handler"
	"coach_chat_server/internal/https_server"
	"coach_chat_server/internal/infrastructure/logger"
	"coach_chat_server/internal/service"
	"coach_chat_server/internal/service/chat"
	"coach_chat_server/pkg/util/jwt"
	"coach_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化雪花 ID 节点
	snowflake.Init()

	// 4. 初始化数据库
	repos := dao.Init()
	zap.L().Info("数据库初始化成功")

	// 5. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 6. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	zap.L().Info("JWT 初始化成功")

	// 7. 初始化参数校验器翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("校验翻译器初始化失败", zap.Error(err))
	}

	// 8. 初始化会话中心与消息分发 (依赖注入)
	// channel 模式: 进程内直接广播
	// kafka 模式: 已落库消息经 Kafka 转发, 支持多实例部署
	hub := chat.NewHub()
	var fanout chat.Fanout
	var kafkaClient *chat.KafkaClient
	var kafkaFanout *chat.KafkaFanout
	if conf.KafkaConfig.MessageMode == "kafka" {
		kafkaClient = chat.NewKafkaClient()
		kafkaClient.KafkaInit()
		kafkaFanout = chat.NewKafkaFanout(kafkaClient, hub)
		go kafkaFanout.Start()
		fanout = kafkaFanout
	} else {
		fanout = chat.NewChannelFanout(hub)
	}
	zap.L().Info("消息分发初始化成功", zap.String("mode", conf.KafkaConfig.MessageMode))

	// 9. 初始化 Service 层 (依赖注入)
	// 历史缓存可整体关停，关停时投递侧也不再做缓存失效
	var cache myredis.AsyncCacheService
	if conf.ChatConfig.HistoryCacheOn {
		cache = myredis.GetCacheService()
	}
	services := service.NewServices(repos, fanout, cache)
	zap.L().Info("Service 层初始化成功")

	// 10. 初始化 WebSocket 网关
	gateway := chat.NewGateway(hub, services.Delivery, conf.ChatConfig.ChannelSize,
		conf.ChatConfig.PingIntervalS, conf.ChatConfig.PongWaitS)

	// 11. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(services, gateway)
	engine := https_server.Init(handlers)
	zap.L().Info("HTTP 服务器初始化成功")

	// 12. 启动服务
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port

	go func() {
		if err := engine.Run(fmt.Sprintf("%s:%d", host, port)); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 等待信号
	<-quit

	zap.L().Info("关闭服务器...")

	if kafkaFanout != nil {
		kafkaFanout.Stop()
	}
	if kafkaClient != nil {
		kafkaClient.KafkaClose()
	}
	hub.Close()

	zap.L().Info("服务器已关闭")
}
