// impactflow-crm/config/redis.go
package config

import (
	"context"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
)

// RDB остается nil, если Redis не настроен или недоступен: все
// пользователи кэша обязаны проверять это и работать напрямую с БД.
var RDB *redis.Client
var Ctx = context.Background()

// ConnectRedis поднимает клиент по REDIS_ADDR (пароль - опционально,
// через REDIS_PASSWORD). Кэш не критичен, поэтому сбой подключения
// лишь отключает кэширование, а не останавливает сервис.
func ConnectRedis() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		slog.Warn("REDIS_ADDR не задан, кэширование отключено")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	if _, err := RDB.Ping(Ctx).Result(); err != nil {
		slog.Error("Redis недоступен, кэширование отключено", "error", err)
		RDB = nil
		return
	}

	slog.Info("Соединение с Redis установлено")
}
