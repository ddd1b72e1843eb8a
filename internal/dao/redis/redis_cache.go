// Package redis 提供 Redis 缓存操作的封装
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisCache AsyncCacheService 的 Redis 实现
// 内置一个闭包式 Worker Pool，用于异步执行缓存更新任务
type redisCache struct {
	client   *redis.Client
	taskChan chan func()
}

// NewRedisCache 创建缓存服务实例并启动 Worker Pool
// workerNum: 后台协程数量；bufferSize: 任务通道缓冲区大小
func NewRedisCache(client *redis.Client, workerNum int, bufferSize int) AsyncCacheService {
	c := &redisCache{
		client:   client,
		taskChan: make(chan func(), bufferSize),
	}
	for i := 0; i < workerNum; i++ {
		go c.startWorker()
	}
	zap.L().Info("Redis Cache Workers started", zap.Int("workers", workerNum), zap.Int("buffer", bufferSize))
	return c
}

// startWorker 启动单个 Worker 消费循环
func (c *redisCache) startWorker() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Redis Worker panic", zap.Any("recover", r))
			go c.startWorker() // 重启
		}
	}()

	for task := range c.taskChan {
		if task != nil {
			task()
		}
	}
}

// SubmitTask 提交异步缓存任务
// 通道满时降级为同步执行，保证任务不丢
func (c *redisCache) SubmitTask(action func()) {
	select {
	case c.taskChan <- action:
	default:
		zap.L().Warn("Redis cache task channel full, executing synchronously")
		action()
	}
}

// Set 设置键值对并指定过期时间
func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// GetOrError 获取键对应的值，键不存在时返回 redis.Nil
func (c *redisCache) GetOrError(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// Delete 删除键
func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeleteByPattern 删除匹配模式的所有键
// 使用 SCAN 渐进式遍历，避免 KEYS 阻塞 Redis
func (c *redisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
