package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	KeyLock      = "edhaus:lock:%s"
	retryEvery   = 25 * time.Millisecond
	unlockWithin = 2 * time.Second
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker is a mutual-exclusion lock shared by every instance pointing at the
// same redis. A lock expires after ttl even if its holder dies.
type Locker struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Locker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{rdb: rdb, ttl: ttl, logger: logger}
}

// Lock blocks until key is acquired or ctx ends. The returned func releases it.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := fmt.Sprintf(KeyLock, key)
	token := uuid.NewString()
	ticker := time.NewTicker(retryEvery)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("lock %s: %w", key, errors.Join(ErrLockTimeout, ctx.Err()))
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(redisKey, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", key, errors.Join(ErrLockTimeout, ctx.Err()))
		case <-ticker.C:
		}
	}
}

// release deletes the key if it still carries token. A failed release leaves
// the key until its TTL runs out, so it is logged.
func (l *Locker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), unlockWithin)
	defer cancel()
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Int()
	switch {
	case err != nil:
		l.logger.Error("failed to release lock", zap.String("key", redisKey), zap.Error(err))
	case deleted == 0:
		l.logger.Warn("lock expired before release", zap.String("key", redisKey), zap.Duration("ttl", l.ttl))
	}
}
