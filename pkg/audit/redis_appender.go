package audit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisAppenderConfig - конфигурация Redis appender
type RedisAppenderConfig struct {
	Address  string // Адрес Redis, например "127.0.0.1:6379"
	Password string // Пароль Redis (опционально)
	DB       int    // Индекс базы данных Redis (по умолчанию 0)
	Key      string // Базовый ключ/канал (по умолчанию "schemafx:audit")
	MaxLen   int64  // Максимальная длина списка записей (по умолчанию 10000)
}

// RedisAppender публикует записи журнала в Redis:
//
//	RPUSH <key>:log <JSON>  + LTRIM             — для выборки последних записей
//	PUBLISH <key>           <JSON>              — для event-driven подписчиков
type RedisAppender struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisAppender - создать Redis appender на основе конфигурации
func NewRedisAppender(config RedisAppenderConfig) *RedisAppender {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	key := config.Key
	if key == "" {
		key = "schemafx:audit"
	}
	maxLen := config.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}

	return &RedisAppender{client: client, key: key, maxLen: maxLen}
}

// Append - опубликовать entry в Redis
func (ra *RedisAppender) Append(ctx context.Context, entry *Entry) error {
	data, err := entry.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	listKey := ra.key + ":log"

	pipe := ra.client.Pipeline()
	pipe.RPush(ctx, listKey, data)
	pipe.LTrim(ctx, listKey, -ra.maxLen, -1)
	pipe.Publish(ctx, ra.key, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish audit entry to redis: %w", err)
	}
	return nil
}

// Close - закрыть подключение к Redis
func (ra *RedisAppender) Close() error {
	return ra.client.Close()
}
