package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/catattack05/functionary/internal/port"
)

const keyPrefix = "functionary:build-lock:"

// unlockScript 只删除值仍为自己令牌的键，避免释放 TTL 过期后被他人重新获取的锁。
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

var _ port.BuildLocker = (*Locker)(nil)

// Locker 基于 SET NX PX 的单实例 Redis 锁。
type Locker struct {
	rdb client
	ttl time.Duration
}

func New(rdb client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

func (l *Locker) TryLock(ctx context.Context, buildID string) (func(context.Context) error, bool, error) {
	key := keyPrefix + buildID
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire build lock %s: %w", buildID, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		if err := l.rdb.Eval(ctx, unlockScript, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release build lock %s: %w", buildID, err)
		}
		return nil
	}
	return unlock, true, nil
}
