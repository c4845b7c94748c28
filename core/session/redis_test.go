package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/coursebot/core/config"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 0)

	if _, found, err := store.Get(ctx, "tg_user_42_state"); err != nil || found {
		t.Fatalf("expected absent key, got found=%v err=%v", found, err)
	}
	if err := store.Set(ctx, "tg_user_42_state", "HANDLE_MENTORS"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := mr.Get("tg_user_42_state")
	if err != nil || got != "HANDLE_MENTORS" {
		t.Fatalf("raw value = %q err=%v", got, err)
	}
	if mr.TTL("tg_user_42_state") != 0 {
		t.Fatalf("expected no expiry, got %s", mr.TTL("tg_user_42_state"))
	}
	v, found, err := store.Get(ctx, "tg_user_42_state")
	if err != nil || !found || v != "HANDLE_MENTORS" {
		t.Fatalf("get = %q found=%v err=%v", v, found, err)
	}
}

func TestRedisStoreTTLEvicts(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Hour)

	if err := store.Set(ctx, "k", "HANDLE_PROGRAM"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if mr.TTL("k") != time.Hour {
		t.Fatalf("ttl = %s", mr.TTL("k"))
	}
	mr.FastForward(2 * time.Hour)
	if _, found, err := store.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expected evicted key, got found=%v err=%v", found, err)
	}
}

func TestRedisStoreBackendErrorIsNotAbsent(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 0)
	mr.SetError("LOADING server is loading")

	if _, found, err := store.Get(ctx, "k"); err == nil || found {
		t.Fatalf("expected read error, got found=%v err=%v", found, err)
	}
	if err := store.Set(ctx, "k", "v"); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := ConnectRedis(context.Background(), coreconfig.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = client.Close()

	mr.Close()
	if _, err := ConnectRedis(context.Background(), coreconfig.RedisConfig{Addr: addr}); err == nil {
		t.Fatalf("expected connect error against stopped server")
	}
}
