// impactflow-crm/internal/handlers/handler_utils.go
package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"impactflow-crm/config"
)

// Кэш списков сущностей в Redis. Ключи строятся по типу сущности,
// инвалидация выполняется на любой мутации этого типа.
const entityCacheTTL = 5 * time.Minute

func entityCacheKey(entity string, query string) string {
	return fmt.Sprintf("list:%s:%s", entity, query)
}

// getCachedList возвращает закэшированный JSON списка или "" при промахе.
func getCachedList(entity string, query string) string {
	if config.RDB == nil {
		return ""
	}
	data, err := config.RDB.Get(config.Ctx, entityCacheKey(entity, query)).Result()
	if err != nil {
		return ""
	}
	return data
}

func storeCachedList(entity string, query string, payload []byte) {
	if config.RDB == nil {
		return
	}
	if err := config.RDB.Set(config.Ctx, entityCacheKey(entity, query), payload, entityCacheTTL).Err(); err != nil {
		slog.Error("Не удалось сохранить список в кэш", "entity", entity, "error", err)
	}
}

// invalidateEntityCache сбрасывает все закэшированные списки типа сущности.
// Вызывается после каждой мутации (create/update/delete/импорт).
func invalidateEntityCache(entity string) {
	if config.RDB == nil {
		return
	}
	pattern := fmt.Sprintf("list:%s:*", entity)
	keys, err := config.RDB.Keys(config.Ctx, pattern).Result()
	if err != nil {
		slog.Error("Не удалось получить ключи кэша", "entity", entity, "error", err)
		return
	}
	if len(keys) > 0 {
		if err := config.RDB.Del(config.Ctx, keys...).Err(); err != nil {
			slog.Error("Не удалось инвалидировать кэш", "entity", entity, "error", err)
		}
	}
}

// invalidateUserCache сбрасывает кэшированные данные пользователя
// (используются в auth middleware).
func invalidateUserCache(userID uint) {
	if config.RDB == nil {
		return
	}
	cacheKey := fmt.Sprintf("user:%d:data", userID)
	if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
		slog.Error("Не удалось сбросить кэш пользователя", "user_id", userID, "error", err)
	}
}
