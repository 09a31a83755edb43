package limits

import "time"

// Default tuning values. All are overridable through configuration at
// construction; tier limits are additionally adjustable at runtime through
// the admin API.
const (
	// DefaultWindow is the sliding window length for rate limiting.
	DefaultWindow = 60 * time.Second
	// DefaultBlockWindow is the duration of a temporary abuse block.
	DefaultBlockWindow = 15 * time.Minute
	// DefaultRapidFireWindow is the span inspected by the rapid-fire rule.
	DefaultRapidFireWindow = 10 * time.Second
	// DefaultRapidFireThreshold triggers a block at this many events in the rapid-fire window.
	DefaultRapidFireThreshold = 10
	// DefaultBurstThreshold triggers a block at this many retained events.
	DefaultBurstThreshold = 50
	// DefaultStaleJobTTL is the age past which an unreleased job is reclaimed.
	DefaultStaleJobTTL = 30 * time.Minute
	// DefaultJanitorInterval is the cadence of the periodic cleanup sweep.
	DefaultJanitorInterval = 5 * time.Minute
)

// DefaultTierLimits returns the per-window request limits per tier and
// category.
func DefaultTierLimits() map[Tier]map[Category]int {
	return map[Tier]map[Category]int{
		TierFree: {
			CategoryGeneral:       15,
			CategoryCommand:       15,
			CategoryFileUpload:    5,
			CategoryURLProcessing: 5,
			CategoryUpload:        5,
			CategoryDownload:      10,
			CategoryWebhook:       30,
		},
		TierPremium: {
			CategoryGeneral:       60,
			CategoryCommand:       60,
			CategoryFileUpload:    20,
			CategoryURLProcessing: 20,
			CategoryUpload:        20,
			CategoryDownload:      40,
			CategoryWebhook:       120,
		},
		TierPro: {
			CategoryGeneral:       120,
			CategoryCommand:       120,
			CategoryFileUpload:    40,
			CategoryURLProcessing: 40,
			CategoryUpload:        40,
			CategoryDownload:      80,
			CategoryWebhook:       240,
		},
		TierAdmin: {
			CategoryGeneral:       600,
			CategoryCommand:       600,
			CategoryFileUpload:    200,
			CategoryURLProcessing: 200,
			CategoryUpload:        200,
			CategoryDownload:      400,
			CategoryWebhook:       1200,
		},
	}
}

// DefaultPerIdentityCaps returns the per-identity in-flight job caps.
func DefaultPerIdentityCaps() map[Tier]int {
	return map[Tier]int{
		TierFree:    1,
		TierPremium: 3,
		TierPro:     5,
		TierAdmin:   8,
	}
}

// DefaultGlobalCaps returns the system-wide in-flight job caps per tier.
func DefaultGlobalCaps() map[Tier]int {
	return map[Tier]int{
		TierFree:    10,
		TierPremium: 20,
		TierPro:     50,
		TierAdmin:   50,
	}
}
