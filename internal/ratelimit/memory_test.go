package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterEnforcesLimit(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(context.Background(), "1.2.3.4", 3, time.Minute, now)
		if err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d denied below the limit", i+1)
		}
	}

	result, err := limiter.Allow(context.Background(), "1.2.3.4", 3, time.Minute, now)
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("request above the limit was allowed")
	}
}

func TestMemoryLimiterKeysIsolated(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	if result, _ := limiter.Allow(context.Background(), "a", 1, time.Minute, now); !result.Allowed {
		t.Fatalf("first request for key a denied")
	}
	if result, _ := limiter.Allow(context.Background(), "a", 1, time.Minute, now); result.Allowed {
		t.Fatalf("second request for key a allowed over limit")
	}
	if result, _ := limiter.Allow(context.Background(), "b", 1, time.Minute, now); !result.Allowed {
		t.Fatalf("key b was throttled by key a's counter")
	}
}

func TestMemoryLimiterWindowRollover(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	if result, _ := limiter.Allow(context.Background(), "k", 1, time.Minute, now); !result.Allowed {
		t.Fatalf("first request denied")
	}
	if result, _ := limiter.Allow(context.Background(), "k", 1, time.Minute, now); result.Allowed {
		t.Fatalf("over-limit request allowed within the window")
	}

	later := now.Add(2 * time.Minute)
	if result, _ := limiter.Allow(context.Background(), "k", 1, time.Minute, later); !result.Allowed {
		t.Fatalf("request denied after the window rolled over")
	}
}

func TestMemoryLimiterZeroLimitAllows(t *testing.T) {
	limiter := NewMemoryLimiter()
	result, err := limiter.Allow(context.Background(), "k", 0, time.Minute, time.Now())
	if err != nil {
		t.Fatalf("Allow returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("zero limit should disable throttling")
	}
}
