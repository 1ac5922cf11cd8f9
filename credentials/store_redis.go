package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/principal"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const redisOpTimeout = 2 * time.Second

// RedisStore keeps the two keys as plain Redis strings under a prefix.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisStore(rdb redis.UniversalClient, prefix string) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("[NewRedisStore] redis client is required")
	}
	if prefix == "" {
		prefix = "portal"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisStore) tokenKey() string {
	return s.prefix + ":" + TokenKey
}

func (s *RedisStore) userKey() string {
	return s.prefix + ":" + UserKey
}

func (s *RedisStore) Save(token string, p *principal.Principal) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	var user []byte
	if p != nil {
		var err error
		if user, err = json.Marshal(p); err != nil {
			return pkgerrors.Wrap(err, "[RedisStore Save] marshal user")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(), token, 0)
		if user != nil {
			pipe.Set(ctx, s.userKey(), user, 0)
		} else {
			pipe.Del(ctx, s.userKey())
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (s *RedisStore) Load() (*Credential, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	values, err := s.rdb.MGet(ctx, s.tokenKey(), s.userKey()).Result()
	if err != nil {
		return nil, pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}

	token, _ := values[0].(string)
	if token == "" {
		return nil, nil
	}
	user, _ := values[1].(string)
	return decodeCredential(token, []byte(user))
}

func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.rdb.Del(ctx, s.tokenKey(), s.userKey()).Err(); err != nil {
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
