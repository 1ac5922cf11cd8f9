package config

type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreRedis  StoreKind = "redis"
	StoreMemory StoreKind = "memory"
)

type StoreConfig interface {
	GetStoreKind() StoreKind
	GetStorePath() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Store struct {
	Kind          StoreKind `env:"PORTAL_STORE" envDefault:"file"`
	Path          string    `env:"PORTAL_STORE_PATH" envDefault:"./data/session.json"`
	RedisAddr     string    `env:"PORTAL_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string    `env:"PORTAL_REDIS_PASSWORD"`
	RedisDB       int       `env:"PORTAL_REDIS_DB" envDefault:"0"`
	RedisPrefix   string    `env:"PORTAL_REDIS_PREFIX" envDefault:"portal"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreKind() StoreKind {
	return s.Kind
}

func (s Store) GetStorePath() string {
	return s.Path
}

func (s Store) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Store) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Store) GetRedisDB() int {
	return s.RedisDB
}

func (s Store) GetRedisPrefix() string {
	return s.RedisPrefix
}
