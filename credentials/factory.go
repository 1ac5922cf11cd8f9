package credentials

import (
	"fmt"

	"github.com/jrsteele09/go-portal-session/internal/config"
	"github.com/redis/go-redis/v9"
)

// New builds the store selected by configuration.
func New(c config.StoreConfig) (Store, error) {
	switch c.GetStoreKind() {
	case config.StoreMemory:
		return NewInMemoryStore(), nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		return NewRedisStore(rdb, c.GetRedisPrefix())
	case config.StoreFile, "":
		return NewFileStore(c.GetStorePath())
	}
	return nil, fmt.Errorf("[credentials New] unknown store kind %q", c.GetStoreKind())
}
