//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/exlog/exlog/internal/model"
	"github.com/exlog/exlog/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}

func TestIntegrationCache_UserRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	id := testutil.UniqueID("user")
	if _, err := c.GetUser(ctx, id); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	user := &model.User{ID: id, Username: "alice", CreatedAt: time.Now().UTC()}
	if err := c.SetUser(ctx, user); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	got, err := c.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want alice", got.Username)
	}
}

func TestIntegrationCache_NegativeClearedBySet(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	id := testutil.UniqueID("user")
	if err := c.SetNegativeCache(ctx, id); err != nil {
		t.Fatalf("SetNegativeCache: %v", err)
	}

	neg, err := c.IsNegativelyCached(ctx, id)
	if err != nil || !neg {
		t.Fatalf("IsNegativelyCached = %v, %v; want true", neg, err)
	}

	if err := c.SetUser(ctx, &model.User{ID: id, Username: "bob"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	neg, err = c.IsNegativelyCached(ctx, id)
	if err != nil || neg {
		t.Errorf("IsNegativelyCached after SetUser = %v, %v; want false", neg, err)
	}
}

func TestIntegrationCache_WriteBudgetsPerRoute(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	ip := testutil.UniqueID("ip")
	budget := Budget{Rate: 1, Burst: 3}

	rejected := 0
	for i := 0; i < 10; i++ {
		d, err := c.AllowWrite(ctx, RouteCreateUser, ip, budget)
		if err != nil {
			t.Fatalf("AllowWrite: %v", err)
		}
		if i < 3 && !d.Allowed {
			t.Fatalf("write %d should be allowed within burst", i+1)
		}
		if !d.Allowed {
			rejected++
			if d.RetryAfter <= 0 {
				t.Errorf("rejected write has RetryAfter %v", d.RetryAfter)
			}
		}
	}
	if rejected == 0 {
		t.Error("expected writes beyond the burst to be rejected")
	}

	d, err := c.AllowWrite(ctx, RouteLogExercise, ip, budget)
	if err != nil {
		t.Fatalf("AllowWrite: %v", err)
	}
	if !d.Allowed {
		t.Error("exhausting create_user should not limit log_exercise")
	}

	ttl, err := c.Client().PTTL(ctx, writeKey(RouteCreateUser, ip)).Result()
	if err != nil {
		t.Fatalf("PTTL: %v", err)
	}
	if ttl <= 0 || ttl > budget.idleTTL() {
		t.Errorf("bucket TTL = %v, want within (0, %v]", ttl, budget.idleTTL())
	}
}
