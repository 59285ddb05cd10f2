package cache

import (
	"context"
	"time"
)

// Cache — кэш готовых планов. Ключи строковые, значения — сериализованный JSON.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}
