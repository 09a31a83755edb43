package limits

import (
	"testing"
	"time"
)

func testLimits() map[Tier]map[Category]int {
	return map[Tier]map[Category]int{
		TierFree:    {CategoryGeneral: 3, CategoryCommand: 2},
		TierPremium: {CategoryGeneral: 5},
		TierPro:     {CategoryGeneral: 10},
		TierAdmin:   {CategoryGeneral: 100},
	}
}

func TestEvaluateAllowsUpToLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	for i := 0; i < 3; i++ {
		res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
		if !res.Allowed {
			t.Fatalf("expected call %d allowed", i+1)
		}
		if res.Remaining != 3-(i+1) {
			t.Fatalf("expected remaining %d, got %d", 3-(i+1), res.Remaining)
		}
	}

	res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	if res.Allowed {
		t.Fatalf("expected 4th call denied")
	}
	if res.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", res.Remaining)
	}
	if !res.Reset.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected reset at oldest+window, got %v", res.Reset)
	}
}

func TestEvaluateWindowRollover(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(10*time.Second))
	limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(20*time.Second))

	if res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(30*time.Second)); res.Allowed {
		t.Fatalf("expected denial inside window")
	}

	// first event expires at now+60s, freeing one slot
	res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(61*time.Second))
	if !res.Allowed {
		t.Fatalf("expected allowance after oldest event expired")
	}
	if res.Remaining != 0 {
		t.Fatalf("expected remaining 0 right after rollover, got %d", res.Remaining)
	}
}

func TestEvaluateRejectedEventsDoNotExtendWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	for i := 0; i < 3; i++ {
		limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	}
	// hammering while throttled must not push the reset out
	for i := 0; i < 20; i++ {
		limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(time.Duration(i)*time.Second))
	}

	if _, total := limiter.Activity("u1", CategoryGeneral, now.Add(30*time.Second), time.Minute); total != 3 {
		t.Fatalf("expected 3 retained events, got %d", total)
	}
	if res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(61*time.Second)); !res.Allowed {
		t.Fatalf("expected allowance once the original events expired")
	}
}

func TestEvaluateUnknownTierFallsBackToFree(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	if limit := limiter.Limit(Tier(42), CategoryGeneral); limit != 3 {
		t.Fatalf("expected free-tier limit 3 for unknown tier, got %d", limit)
	}

	for i := 0; i < 3; i++ {
		if res := limiter.Evaluate("u1", Tier(42), CategoryGeneral, now); !res.Allowed {
			t.Fatalf("expected call %d allowed", i+1)
		}
	}
	if res := limiter.Evaluate("u1", Tier(42), CategoryGeneral, now); res.Allowed {
		t.Fatalf("expected unknown tier capped at free limit")
	}
}

func TestEvaluateUnknownCategoryFallsBackToGeneral(t *testing.T) {
	limiter := NewRateLimiter(time.Minute, testLimits())
	if limit := limiter.Limit(TierPremium, Category("mystery")); limit != 5 {
		t.Fatalf("expected general limit 5, got %d", limit)
	}
}

func TestEvaluateZeroLimitShutsCategory(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, map[Tier]map[Category]int{
		TierFree: {CategoryGeneral: 0},
	})
	if res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now); res.Allowed {
		t.Fatalf("expected zero limit to deny everything")
	}
}

func TestCategoriesTrackedIndependently(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	for i := 0; i < 2; i++ {
		limiter.Evaluate("u1", TierFree, CategoryCommand, now)
	}
	if res := limiter.Evaluate("u1", TierFree, CategoryCommand, now); res.Allowed {
		t.Fatalf("expected command category exhausted")
	}
	if res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now); !res.Allowed {
		t.Fatalf("expected general category unaffected")
	}
}

func TestIdentitiesTrackedIndependently(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	for i := 0; i < 3; i++ {
		limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	}
	if res := limiter.Evaluate("u2", TierFree, CategoryGeneral, now); !res.Allowed {
		t.Fatalf("expected u2 unaffected by u1 exhaustion")
	}
}

func TestSetLimitRejectsUnknownTier(t *testing.T) {
	limiter := NewRateLimiter(time.Minute, testLimits())
	if errSet := limiter.SetLimit(Tier(42), CategoryGeneral, 7); errSet != ErrUnknownTier {
		t.Fatalf("expected ErrUnknownTier, got %v", errSet)
	}
	if errSet := limiter.SetLimit(TierPro, CategoryGeneral, 7); errSet != nil {
		t.Fatalf("expected set ok, got %v", errSet)
	}
	if limit := limiter.Limit(TierPro, CategoryGeneral); limit != 7 {
		t.Fatalf("expected updated limit 7, got %d", limit)
	}
}

func TestClearIdentityDropsState(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	for i := 0; i < 3; i++ {
		limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	}
	limiter.ClearIdentity("u1")
	if res := limiter.Evaluate("u1", TierFree, CategoryGeneral, now); !res.Allowed {
		t.Fatalf("expected fresh window after clear")
	}
}

func TestSweepDropsEmptyWindows(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, testLimits())

	limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	limiter.Evaluate("u2", TierFree, CategoryGeneral, now.Add(30*time.Second))
	if count := limiter.ActiveIdentities(); count != 2 {
		t.Fatalf("expected 2 active identities, got %d", count)
	}

	limiter.Sweep(now.Add(70 * time.Second))
	if count := limiter.ActiveIdentities(); count != 1 {
		t.Fatalf("expected 1 active identity after sweep, got %d", count)
	}
	limiter.Sweep(now.Add(2 * time.Hour))
	if count := limiter.ActiveIdentities(); count != 0 {
		t.Fatalf("expected 0 active identities after full expiry, got %d", count)
	}
}

func TestActivityCountsRecentAndTotal(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Minute, map[Tier]map[Category]int{
		TierFree: {CategoryGeneral: 100},
	})

	limiter.Evaluate("u1", TierFree, CategoryGeneral, now)
	limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(20*time.Second))
	limiter.Evaluate("u1", TierFree, CategoryGeneral, now.Add(40*time.Second))

	recent, total := limiter.Activity("u1", CategoryGeneral, now.Add(41*time.Second), 10*time.Second)
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if recent != 1 {
		t.Fatalf("expected 1 recent event, got %d", recent)
	}
}
