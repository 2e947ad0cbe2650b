package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/vitalsync/vitalsync/internal/config"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		result, errAllow := limiter.Allow(context.Background(), "u:1", 2, now)
		if errAllow != nil {
			t.Fatalf("allow: %v", errAllow)
		}
		if !result.Allowed {
			t.Fatalf("expected request %d allowed", i+1)
		}
	}

	result, errAllow := limiter.Allow(context.Background(), "u:1", 2, now)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if result.Allowed {
		t.Fatal("expected third request in the same second denied")
	}

	// A different key is unaffected.
	other, _ := limiter.Allow(context.Background(), "u:2", 2, now)
	if !other.Allowed {
		t.Fatal("expected other user allowed")
	}

	// The next second opens a new window.
	next, _ := limiter.Allow(context.Background(), "u:1", 2, now.Add(time.Second))
	if !next.Allowed {
		t.Fatal("expected request allowed in the next window")
	}
}

func TestMemoryLimiter_ZeroLimitIsUnlimited(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Now()

	for i := 0; i < 10; i++ {
		result, _ := limiter.Allow(context.Background(), "u:1", 0, now)
		if !result.Allowed {
			t.Fatal("expected zero limit to disable the check")
		}
	}
}

func TestManager_UsesMemoryWithoutRedis(t *testing.T) {
	now := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)
	manager := NewManager(func() config.RateLimitConfig {
		return config.RateLimitConfig{PerSecond: 1}
	}, func() time.Time { return now }, nil)

	first, errFirst := manager.Allow(context.Background(), UserKey(1))
	if errFirst != nil {
		t.Fatalf("allow: %v", errFirst)
	}
	if !first.Allowed {
		t.Fatal("expected first request allowed")
	}

	second, errSecond := manager.Allow(context.Background(), UserKey(1))
	if errSecond != nil {
		t.Fatalf("allow: %v", errSecond)
	}
	if second.Allowed {
		t.Fatal("expected second request in the same second denied")
	}
}

func TestUserKey(t *testing.T) {
	if got := UserKey(7); got != "u:7" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := UserKey(0); got != "" {
		t.Fatalf("expected empty key for zero user, got %q", got)
	}
}
