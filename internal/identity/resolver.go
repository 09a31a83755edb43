// Package identity resolves an opaque identity to its subscription tier.
// Resolution is advisory and never blocks a caller: any failure resolves to
// the free tier so uncertainty under-privileges rather than over-privileges.
package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
	"github.com/shortsforge/ShortsForgeGuard/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Resolver maps an identity to its subscription tier at evaluation time.
// Tiers are not cached authoritatively; subscriptions can change between
// calls.
type Resolver interface {
	Resolve(ctx context.Context, identity string) limits.Tier
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, identity string) limits.Tier

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, identity string) limits.Tier {
	return f(ctx, identity)
}

// GormResolver resolves tiers from the users table. Identities that are not
// numeric user IDs (anonymous callers keyed by IP) resolve to the free tier.
type GormResolver struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewGormResolver constructs a GormResolver. nowFn defaults to time.Now when
// nil.
func NewGormResolver(conn *gorm.DB, nowFn func() time.Time) *GormResolver {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &GormResolver{db: conn, nowFn: nowFn}
}

// Resolve implements Resolver.
func (r *GormResolver) Resolve(ctx context.Context, identity string) limits.Tier {
	if r == nil || r.db == nil {
		return limits.TierFree
	}
	userID, errParse := strconv.ParseUint(strings.TrimSpace(identity), 10, 64)
	if errParse != nil || userID == 0 {
		return limits.TierFree
	}
	if ctx == nil {
		ctx = context.Background()
	}

	type userRow struct {
		Tier               string
		Active             bool
		Disabled           bool
		SubscriptionEndsAt *time.Time
	}
	var row userRow
	if errFind := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("tier", "active", "disabled", "subscription_ends_at").
		Where("id = ?", userID).
		Take(&row).Error; errFind != nil {
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			log.WithError(errFind).WithField("identity", identity).Warn("tier resolution failed, treating as free")
		}
		return limits.TierFree
	}
	if !row.Active || row.Disabled {
		return limits.TierFree
	}
	if row.SubscriptionEndsAt != nil && r.nowFn().After(*row.SubscriptionEndsAt) {
		return limits.TierFree
	}

	tier, ok := limits.ParseTier(row.Tier)
	if !ok {
		log.WithField("identity", identity).WithField("tier", row.Tier).Warn("unknown tier on user record, treating as free")
		return limits.TierFree
	}
	return tier
}
