package limits

import (
	"errors"
	"strings"
)

// Tier identifies a subscription class controlling limits.
type Tier int

// Subscription tiers ordered by privilege.
const (
	TierFree Tier = iota
	TierPremium
	TierPro
	TierAdmin
)

// ErrUnknownTier indicates a tier outside the closed tier set.
var ErrUnknownTier = errors.New("limits: unknown tier")

var tierNames = [...]string{
	TierFree:    "free",
	TierPremium: "premium",
	TierPro:     "pro",
	TierAdmin:   "admin",
}

// String returns the canonical tier name.
func (t Tier) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return tierNames[t]
}

// Valid reports whether the tier belongs to the closed tier set.
func (t Tier) Valid() bool {
	return t >= TierFree && t <= TierAdmin
}

// ParseTier maps a tier name to its Tier value.
// Unrecognized names resolve to TierFree with ok=false so callers fail closed.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return TierFree, true
	case "premium":
		return TierPremium, true
	case "pro":
		return TierPro, true
	case "admin":
		return TierAdmin, true
	default:
		return TierFree, false
	}
}

// Tiers returns all tiers in the closed set.
func Tiers() []Tier {
	return []Tier{TierFree, TierPremium, TierPro, TierAdmin}
}
