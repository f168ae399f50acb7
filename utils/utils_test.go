package utils

import (
	"context"
	"testing"
	"time"
)

func TestTokenBlacklistInMemory(t *testing.T) {
	b := NewTokenBlacklist(nil)
	ctx := context.Background()

	if b.IsRevoked(ctx, "t1") {
		t.Fatalf("fresh token reported revoked")
	}
	if err := b.Revoke(ctx, "t1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !b.IsRevoked(ctx, "t1") {
		t.Fatalf("revoked token not reported")
	}
	if err := b.Revoke(ctx, "t2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke expired: %v", err)
	}
	if b.IsRevoked(ctx, "t2") {
		t.Fatalf("already expired token should not be stored")
	}
}

func TestCacheWithoutRedisIsNoop(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()
	c.SetJSON(ctx, "k", []int{1, 2}, 0)
	var out []int
	if c.GetJSON(ctx, "k", &out) {
		t.Fatalf("disabled cache returned a hit")
	}
	c.Delete(ctx, "k")
	c.InvalidateByPrefix(ctx, "k")

	var nilCache *Cache
	if nilCache.GetJSON(ctx, "k", &out) {
		t.Fatalf("nil cache returned a hit")
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{Sanitize, `<a href="javascript:alert(1)">x</a>`, "x"},
		{Sanitize, "<p><b>ok</b></p>", "<p><b>ok</b></p>"},
		{SanitizePlain, " <i>Q&amp;A</i> ", "Q&A"},
		{SanitizePlain, "<script>alert(1)</script>", ""},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.want {
			t.Fatalf("sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "password123") || CheckPassword(hash, "password124") {
		t.Fatalf("CheckPassword mismatch")
	}
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := HashPassword(string(long)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]uint{3, 1, 3, 2, 1})
	want := []uint{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("Unique = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Unique = %v, want %v", got, want)
		}
	}
}
