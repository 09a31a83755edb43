package limits

import (
	"testing"
	"time"
)

func TestBlockRegistryExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := NewBlockRegistry(15 * time.Minute)

	blocks.Block("u1", now)

	blocked, left := blocks.IsBlocked("u1", now.Add(5*time.Minute))
	if !blocked {
		t.Fatalf("expected blocked inside window")
	}
	if left != 10*time.Minute {
		t.Fatalf("expected 10m remaining, got %v", left)
	}

	if blocked, _ := blocks.IsBlocked("u1", now.Add(15*time.Minute)); blocked {
		t.Fatalf("expected block expired at window boundary")
	}
	// expired entry is removed on lookup
	if count := blocks.Count(now.Add(15 * time.Minute)); count != 0 {
		t.Fatalf("expected 0 blocked identities, got %d", count)
	}
}

func TestBlockDoesNotCompound(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := NewBlockRegistry(15 * time.Minute)

	blocks.Block("u1", now)
	blocks.Block("u1", now.Add(10*time.Minute))

	if blocked, _ := blocks.IsBlocked("u1", now.Add(14*time.Minute)); !blocked {
		t.Fatalf("expected still blocked before original expiry")
	}
	if blocked, _ := blocks.IsBlocked("u1", now.Add(15*time.Minute)); blocked {
		t.Fatalf("expected original expiry to hold, repeat offense must not extend it")
	}
}

func TestBlockAfterExpiryStartsFresh(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := NewBlockRegistry(15 * time.Minute)

	blocks.Block("u1", now)
	blocks.Block("u1", now.Add(20*time.Minute))

	if blocked, _ := blocks.IsBlocked("u1", now.Add(30*time.Minute)); !blocked {
		t.Fatalf("expected new block after the first one expired")
	}
}

func TestUnblockRemovesBlock(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := NewBlockRegistry(15 * time.Minute)

	blocks.Block("u1", now)
	blocks.Unblock("u1")
	if blocked, _ := blocks.IsBlocked("u1", now); blocked {
		t.Fatalf("expected unblocked")
	}
}

func TestBlockSweepDropsExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := NewBlockRegistry(15 * time.Minute)

	blocks.Block("u1", now)
	blocks.Block("u2", now.Add(10*time.Minute))
	blocks.Sweep(now.Add(16 * time.Minute))

	if blocked, _ := blocks.IsBlocked("u1", now.Add(16*time.Minute)); blocked {
		t.Fatalf("expected u1 swept")
	}
	if blocked, _ := blocks.IsBlocked("u2", now.Add(16*time.Minute)); !blocked {
		t.Fatalf("expected u2 still blocked")
	}
}

func TestRapidFireTriggersBlock(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, map[Tier]map[Category]int{
		TierFree: {CategoryCommand: 100},
	})
	blocks := NewBlockRegistry(15 * time.Minute)
	detector := NewAbuseDetector(limiter, blocks, 10*time.Second, 10, 50)

	// 10 commands inside 2 seconds
	for i := 0; i < 10; i++ {
		at := now.Add(time.Duration(i*200) * time.Millisecond)
		limiter.Evaluate("u1", TierFree, CategoryCommand, at)
		tripped := detector.CheckAndMaybeBlock("u1", CategoryCommand, at)
		if i < 9 && tripped {
			t.Fatalf("expected no block before the 10th event, tripped at %d", i+1)
		}
		if i == 9 && !tripped {
			t.Fatalf("expected rapid-fire block on the 10th event")
		}
	}

	if blocked, _ := blocks.IsBlocked("u1", now.Add(time.Minute)); !blocked {
		t.Fatalf("expected identity blocked")
	}
}

func TestBurstTriggersBlock(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, map[Tier]map[Category]int{
		TierFree: {CategoryGeneral: 100},
	})
	blocks := NewBlockRegistry(15 * time.Minute)
	detector := NewAbuseDetector(limiter, blocks, 10*time.Second, 1000, 50)

	// spaced out enough to never trip rapid fire, dense enough to stay retained
	for i := 0; i < 50; i++ {
		at := now.Add(time.Duration(i) * time.Second)
		limiter.Evaluate("u1", TierFree, CategoryGeneral, at)
		tripped := detector.CheckAndMaybeBlock("u1", CategoryGeneral, at)
		if i < 49 && tripped {
			t.Fatalf("expected no block before 50 retained events, tripped at %d", i+1)
		}
		if i == 49 && !tripped {
			t.Fatalf("expected burst block at 50 retained events")
		}
	}
}

func TestDetectorBelowThresholdsDoesNothing(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, map[Tier]map[Category]int{
		TierFree: {CategoryGeneral: 100},
	})
	blocks := NewBlockRegistry(15 * time.Minute)
	detector := NewAbuseDetector(limiter, blocks, 10*time.Second, 10, 50)

	for i := 0; i < 9; i++ {
		limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	}
	if detector.CheckAndMaybeBlock("u1", CategoryGeneral, now) {
		t.Fatalf("expected no block at 9 events")
	}
}
