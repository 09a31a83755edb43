package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
	"github.com/shortsforge/ShortsForgeGuard/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.User{}, &models.Plan{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return db
}

func TestGormResolverResolvesTiers(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	users := []models.User{
		{Username: "free-user", Email: "free@example.com", Tier: "free", Active: true},
		{Username: "premium-user", Email: "premium@example.com", Tier: "premium", Active: true, SubscriptionEndsAt: &future},
		{Username: "lapsed-pro", Email: "lapsed@example.com", Tier: "pro", Active: true, SubscriptionEndsAt: &past},
		{Username: "disabled-pro", Email: "disabled@example.com", Tier: "pro", Active: true, Disabled: true},
		{Username: "inactive-admin", Email: "inactive@example.com", Tier: "admin", Active: false},
		{Username: "bad-tier", Email: "bad@example.com", Tier: "platinum", Active: true},
	}
	for i := range users {
		if errCreate := db.Create(&users[i]).Error; errCreate != nil {
			t.Fatalf("create user: %v", errCreate)
		}
	}

	resolver := NewGormResolver(db, func() time.Time { return now })
	ctx := context.Background()

	cases := []struct {
		user models.User
		tier limits.Tier
	}{
		{users[0], limits.TierFree},
		{users[1], limits.TierPremium},
		{users[2], limits.TierFree},
		{users[3], limits.TierFree},
		{users[4], limits.TierFree},
		{users[5], limits.TierFree},
	}
	for _, tc := range cases {
		identity := fmt.Sprintf("%d", tc.user.ID)
		if tier := resolver.Resolve(ctx, identity); tier != tc.tier {
			t.Fatalf("user %q: expected %v, got %v", tc.user.Username, tc.tier, tier)
		}
	}
}

func TestGormResolverAnonymousIdentity(t *testing.T) {
	db := openTestDB(t)
	resolver := NewGormResolver(db, nil)
	ctx := context.Background()

	// IP-keyed and unknown identities resolve to the free tier
	for _, identity := range []string{"203.0.113.7", "", "0", "999999"} {
		if tier := resolver.Resolve(ctx, identity); tier != limits.TierFree {
			t.Fatalf("identity %q: expected free, got %v", identity, tier)
		}
	}
}
