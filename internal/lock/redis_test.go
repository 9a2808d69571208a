package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// memClient emulates SET NX and the release script over a map.
type memClient struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
	evals  int
}

func newMemClient() *memClient {
	return &memClient{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memClient) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return redis.NewBoolResult(false, c.setErr)
	}
	if _, held := c.values[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	c.values[key] = value.(string)
	c.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (c *memClient) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evals++
	if c.values[keys[0]] == args[0].(string) {
		delete(c.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLockContention(t *testing.T) {
	client := newMemClient()
	first := &RedisLock{Client: client, TTL: time.Minute}
	second := &RedisLock{Client: client, TTL: time.Minute}

	release, err := first.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire() error: %v", err)
	}
	if client.ttls[DefaultKey] != time.Minute {
		t.Fatalf("ttl = %v, want 1m", client.ttls[DefaultKey])
	}

	if _, err := second.Acquire(context.Background()); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire() error = %v, want ErrLocked", err)
	}

	release()
	release()
	if client.evals != 1 {
		t.Fatalf("release evaluated %d times, want 1", client.evals)
	}

	release2, err := second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() after release error: %v", err)
	}
	release2()
}

func TestRedisLockReleaseKeepsForeignToken(t *testing.T) {
	client := newMemClient()
	l := &RedisLock{Client: client, Key: "custom"}

	release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if client.ttls["custom"] != DefaultTTL {
		t.Fatalf("ttl = %v, want default", client.ttls["custom"])
	}

	// lease expired and another run took over
	client.values["custom"] = "someone-else"
	release()
	if client.values["custom"] != "someone-else" {
		t.Fatalf("release removed a lock it does not own")
	}
}

func TestRedisLockSetError(t *testing.T) {
	client := newMemClient()
	client.setErr = errors.New("connection refused")
	l := &RedisLock{Client: client}

	_, err := l.Acquire(context.Background())
	if err == nil || errors.Is(err, ErrLocked) {
		t.Fatalf("Acquire() error = %v, want a connection error", err)
	}
}
