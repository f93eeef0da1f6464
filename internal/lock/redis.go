package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultTTL = 30 * time.Second

// releaseScript deletes the key only when its value is still the caller's owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{Client: client, TTL: ttl}
}

func (r *Redis) Acquire(ctx context.Context, key, owner string) (bool, error) {
	return r.Client.SetNX(ctx, key, owner, r.TTL).Result()
}

func (r *Redis) Release(ctx context.Context, key, owner string) error {
	err := releaseScript.Run(ctx, r.Client, []string{key}, owner).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// Holder returns the current owner of key, or "" when free.
func (r *Redis) Holder(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
