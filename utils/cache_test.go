package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestCacheRoundTripAndPrefixInvalidation(t *testing.T) {
	mr, rc := newMiniRedis(t)
	c := NewCache(rc)
	ctx := context.Background()

	for _, key := range []string{"cache:a:list", "cache:a:id:1", "cache:b:list"} {
		c.SetJSON(ctx, key, []string{key}, 0)
	}
	var got []string
	if !c.GetJSON(ctx, "cache:a:id:1", &got) || len(got) != 1 || got[0] != "cache:a:id:1" {
		t.Fatalf("unexpected cache hit %v", got)
	}
	if ttl := mr.TTL("cache:a:list"); ttl != defaultCacheTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}

	c.InvalidateByPrefix(ctx, "cache:a:")
	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != "cache:b:list" {
		t.Fatalf("unexpected keys after invalidation: %v", keys)
	}

	c.Delete(ctx, "cache:b:list")
	if c.GetJSON(ctx, "cache:b:list", &got) {
		t.Fatalf("deleted key still cached")
	}
}

func TestTokenBlacklistRedis(t *testing.T) {
	mr, rc := newMiniRedis(t)
	b := NewTokenBlacklist(rc)
	ctx := context.Background()

	if err := b.Revoke(ctx, "t1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !b.IsRevoked(ctx, "t1") || b.IsRevoked(ctx, "t2") {
		t.Fatalf("unexpected revocation state")
	}
	mr.FastForward(2 * time.Hour)
	if b.IsRevoked(ctx, "t1") {
		t.Fatalf("revocation outlived token expiry")
	}
}
