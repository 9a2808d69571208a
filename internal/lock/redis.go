// Package lock keeps two catalog imports from writing the same store at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKey is the Redis key guarding the products table.
	DefaultKey = "fashionstore:catalog-import"
	DefaultTTL = 5 * time.Minute
)

// ErrLocked means another import holds the lock.
var ErrLocked = errors.New("catalog import already running")

// Client is the subset of *redis.Client the lock uses.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Deletes the key only while it still holds our token, so an expired lock
// taken over by another run is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLock is a single-holder lease: SET NX PX with a random token.
type RedisLock struct {
	Client Client
	Key    string
	TTL    time.Duration
}

// NewClient connects to addr, which may be a redis:// URL or host:port.
func NewClient(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

func (l *RedisLock) key() string {
	if l.Key == "" {
		return DefaultKey
	}
	return l.Key
}

func (l *RedisLock) ttl() time.Duration {
	if l.TTL <= 0 {
		return DefaultTTL
	}
	return l.TTL
}

// Acquire takes the lock or fails with ErrLocked. The returned release
// func is safe to call more than once.
func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	key := l.key()
	token := uuid.NewString()

	ok, err := l.Client.SetNX(ctx, key, token, l.ttl()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (key %s)", ErrLocked, key)
	}
	slog.Debug("import lock acquired", slog.String("key", key), slog.Duration("ttl", l.ttl()))

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// The caller's ctx may already be cancelled when release runs.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Client.Eval(rctx, releaseScript, []string{key}, token).Err(); err != nil {
			slog.Warn("release import lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
