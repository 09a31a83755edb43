package limits

import (
	"fmt"
	"testing"
	"time"
)

func testController() *AdmissionController {
	return NewAdmissionController(DefaultPerIdentityCaps(), DefaultGlobalCaps(), 30*time.Minute)
}

func TestTryAdmitPerIdentityCap(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	if !controller.TryAdmit("u1", TierFree, "job-1", now) {
		t.Fatalf("expected first job admitted")
	}
	if controller.TryAdmit("u1", TierFree, "job-2", now) {
		t.Fatalf("expected free tier capped at 1 in-flight job")
	}
	if !controller.TryAdmit("u2", TierFree, "job-3", now) {
		t.Fatalf("expected other identity unaffected")
	}
}

func TestTryAdmitGlobalTierCap(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	// free tier: 1 per identity, 10 global
	for i := 0; i < 10; i++ {
		identity := fmt.Sprintf("u%d", i)
		if !controller.TryAdmit(identity, TierFree, fmt.Sprintf("job-%d", i), now) {
			t.Fatalf("expected job %d admitted", i)
		}
	}
	if controller.TryAdmit("u10", TierFree, "job-10", now) {
		t.Fatalf("expected free tier global cap of 10 to deny")
	}
	if !controller.TryAdmit("p1", TierPremium, "job-p1", now) {
		t.Fatalf("expected premium tier unaffected by free tier global cap")
	}
}

func TestTryAdmitRejectsDuplicateJobID(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	if !controller.TryAdmit("u1", TierPro, "job-1", now) {
		t.Fatalf("expected first admit ok")
	}
	if controller.TryAdmit("u2", TierPro, "job-1", now) {
		t.Fatalf("expected duplicate job ID rejected")
	}
	if controller.TryAdmit("u1", TierPro, "", now) {
		t.Fatalf("expected empty job ID rejected")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	controller.TryAdmit("u1", TierFree, "job-1", now)
	controller.Release("job-1")
	controller.Release("job-1")
	controller.Release("never-admitted")

	if inFlight := controller.InFlight("u1"); inFlight != 0 {
		t.Fatalf("expected 0 in flight, got %d", inFlight)
	}
	// counters must not have gone negative: one admit fills the cap again
	if !controller.TryAdmit("u1", TierFree, "job-2", now) {
		t.Fatalf("expected admit after release")
	}
	if controller.TryAdmit("u1", TierFree, "job-3", now) {
		t.Fatalf("expected cap still enforced after double release")
	}
}

func TestProTierAdmissionScenario(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	// pro tier: 5 per identity
	for i := 1; i <= 5; i++ {
		if !controller.TryAdmit("pro-user", TierPro, fmt.Sprintf("J%d", i), now) {
			t.Fatalf("expected J%d admitted", i)
		}
	}
	if controller.TryAdmit("pro-user", TierPro, "J6", now) {
		t.Fatalf("expected J6 denied at per-identity cap")
	}

	controller.Release("J3")
	if !controller.TryAdmit("pro-user", TierPro, "J6", now) {
		t.Fatalf("expected J6 admitted after J3 released")
	}
	if inFlight := controller.InFlight("pro-user"); inFlight != 5 {
		t.Fatalf("expected 5 in flight, got %d", inFlight)
	}
}

func TestReclaimStale(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	controller.TryAdmit("u1", TierPro, "old-job", now)
	controller.TryAdmit("u1", TierPro, "new-job", now.Add(29*time.Minute))

	reclaimed := controller.ReclaimStale(now.Add(31 * time.Minute))
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed, got %d", reclaimed)
	}
	if inFlight := controller.InFlight("u1"); inFlight != 1 {
		t.Fatalf("expected 1 in flight after reclaim, got %d", inFlight)
	}

	// reclaim again: nothing left to take
	if reclaimed := controller.ReclaimStale(now.Add(31 * time.Minute)); reclaimed != 0 {
		t.Fatalf("expected 0 reclaimed on second pass, got %d", reclaimed)
	}

	// a late completion report for the reclaimed job is a harmless no-op
	controller.Release("old-job")
	if inFlight := controller.InFlight("u1"); inFlight != 1 {
		t.Fatalf("expected late release to change nothing, got %d", inFlight)
	}
}

func TestUnknownTierAdmitsUnderFreeCaps(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	if !controller.TryAdmit("u1", Tier(42), "job-1", now) {
		t.Fatalf("expected admit under free caps")
	}
	if controller.TryAdmit("u1", Tier(42), "job-2", now) {
		t.Fatalf("expected unknown tier capped like free")
	}
	byTier := controller.InFlightByTier()
	if byTier[TierFree] != 1 {
		t.Fatalf("expected unknown tier counted as free, got %v", byTier)
	}
}

func TestSetCapsAdjustsAtRuntime(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	controller := testController()

	if errSet := controller.SetCaps(Tier(42), 2, 4); errSet != ErrUnknownTier {
		t.Fatalf("expected ErrUnknownTier, got %v", errSet)
	}
	if errSet := controller.SetCaps(TierFree, 2, 10); errSet != nil {
		t.Fatalf("expected set ok, got %v", errSet)
	}
	perIdentity, global := controller.Caps(TierFree)
	if perIdentity != 2 || global != 10 {
		t.Fatalf("expected caps 2/10, got %d/%d", perIdentity, global)
	}

	controller.TryAdmit("u1", TierFree, "job-1", now)
	if !controller.TryAdmit("u1", TierFree, "job-2", now) {
		t.Fatalf("expected raised cap to admit a second job")
	}
}
