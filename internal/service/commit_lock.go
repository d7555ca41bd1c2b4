package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pathways_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker serializes ledger commits for one key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// commitLockKey covers the whole module: the before/after snapshots read every unit in it,
// so two units of one module must not commit side by side.
func commitLockKey(userID uint, moduleID string) string {
	return fmt.Sprintf("pathways:commit:%d:module:%s", userID, moduleID)
}

// LocalLocker is an in-process keyed lock. Entries are dropped once nobody holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*lockSlot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *LocalLocker) release(key string, s *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// unlockScript deletes the key only if we still own it.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var ErrLockTimeout = errors.New("commit lock wait cancelled")

// RedisLocker is a SET NX PX lock shared by every instance behind the same redis.
// TTL bounds how long a crashed holder can block others.
type RedisLocker struct {
	Redis *redis.Client
	TTL   time.Duration
	Retry time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Redis: rdb, TTL: ttl, Retry: 25 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := l.Redis.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(l.Retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 使用独立 context，避免请求取消导致锁残留到 TTL
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, l.Redis, []string{key}, token).Err(); err != nil {
				logger.Log.Warn("Failed to release commit lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}
