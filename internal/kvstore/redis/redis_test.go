package redis

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestKeyPrefix(t *testing.T) {
	s := NewStorage(Config{Addr: "localhost:6379"})
	defer s.Close()
	if got := s.key("corpus"); got != "docchat:corpus" {
		t.Fatalf("unexpected key %q", got)
	}
	s2 := NewStorage(Config{Addr: "localhost:6379", Prefix: "team"})
	defer s2.Close()
	if got := s2.key("budget"); got != "team:budget" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestPingUnreachable(t *testing.T) {
	s := NewStorage(Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	defer s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail against a closed port")
	}
}

// Runs against a real server when DOCCHAT_TEST_REDIS_ADDR is set.
func TestStorageAgainstServer(t *testing.T) {
	addr := os.Getenv("DOCCHAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DOCCHAT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	s := NewStorage(Config{Addr: addr, Prefix: "docchat-test"})
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("get = %q, %v, %v", v, ok, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := s.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
}
