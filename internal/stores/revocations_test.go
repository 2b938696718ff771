package stores

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/keywarden/keywarden/internal/domain"
)

func revocationLists(t *testing.T) map[string]func(t *testing.T, clock *fakeClock) domain.RevocationList {
	t.Helper()
	return map[string]func(t *testing.T, clock *fakeClock) domain.RevocationList{
		"memory": func(t *testing.T, clock *fakeClock) domain.RevocationList {
			return NewMemoryRevocationList(clock)
		},
		"redis": func(t *testing.T, clock *fakeClock) domain.RevocationList {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisRevocationList(client)
		},
	}
}

func TestRevocationListRevokeAndCheck(t *testing.T) {
	for name, build := range revocationLists(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			list := build(t, newFakeClock())

			revoked, err := list.IsRevoked(ctx, "token-1")
			if err != nil {
				t.Fatalf("IsRevoked: %v", err)
			}
			if revoked {
				t.Fatal("expected unknown token to not be revoked")
			}

			if err := list.Revoke(ctx, "token-1", time.Minute); err != nil {
				t.Fatalf("Revoke: %v", err)
			}
			revoked, err = list.IsRevoked(ctx, "token-1")
			if err != nil {
				t.Fatalf("IsRevoked: %v", err)
			}
			if !revoked {
				t.Fatal("expected revoked token to report revoked")
			}

			// Revoking again succeeds and keeps the entry.
			if err := list.Revoke(ctx, "token-1", time.Minute); err != nil {
				t.Fatalf("repeated Revoke: %v", err)
			}
			revoked, err = list.IsRevoked(ctx, "token-1")
			if err != nil {
				t.Fatalf("IsRevoked: %v", err)
			}
			if !revoked {
				t.Fatal("expected token to stay revoked after repeated revoke")
			}
		})
	}
}

func TestMemoryRevocationListExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	list := NewMemoryRevocationList(clock)

	if err := list.Revoke(ctx, "token-1", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	clock.Advance(2 * time.Minute)

	revoked, err := list.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatal("expected entry to expire after its TTL")
	}
}

func TestRedisRevocationListExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	list := NewRedisRevocationList(client)

	if err := list.Revoke(ctx, "token-1", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	revoked, err := list.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatal("expected entry to expire after its TTL")
	}
}
