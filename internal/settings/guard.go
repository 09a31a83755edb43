package settings

import (
	"encoding/json"
	"strings"
	"time"
)

// GuardSettings captures guard tuning stored in DB config. Zero values mean
// "not set"; callers keep their configured defaults for those.
type GuardSettings struct {
	RateWindow         time.Duration
	BlockWindow        time.Duration
	RapidFireThreshold int
	BurstThreshold     int
	StaleJobTTL        time.Duration

	// TierLimits maps tier name -> category name -> per-window limit.
	TierLimits map[string]map[string]int

	StatsRedisEnabled  bool
	StatsRedisAddr     string
	StatsRedisPassword string
	StatsRedisDB       int
	StatsRedisPrefix   string
}

// LoadGuardSettings loads the current guard settings snapshot.
func LoadGuardSettings() GuardSettings {
	cfg := GuardSettings{StatsRedisPrefix: DefaultStatsRedisPrefix}

	if raw, ok := DBConfigValue(RateWindowSecondsKey); ok {
		if seconds, okParse := ParseNonNegativeInt(raw); okParse && seconds > 0 {
			cfg.RateWindow = time.Duration(seconds) * time.Second
		}
	}
	if raw, ok := DBConfigValue(BlockWindowSecondsKey); ok {
		if seconds, okParse := ParseNonNegativeInt(raw); okParse && seconds > 0 {
			cfg.BlockWindow = time.Duration(seconds) * time.Second
		}
	}
	if raw, ok := DBConfigValue(RapidFireThresholdKey); ok {
		if threshold, okParse := ParseNonNegativeInt(raw); okParse {
			cfg.RapidFireThreshold = threshold
		}
	}
	if raw, ok := DBConfigValue(BurstThresholdKey); ok {
		if threshold, okParse := ParseNonNegativeInt(raw); okParse {
			cfg.BurstThreshold = threshold
		}
	}
	if raw, ok := DBConfigValue(StaleJobTTLSecondsKey); ok {
		if seconds, okParse := ParseNonNegativeInt(raw); okParse && seconds > 0 {
			cfg.StaleJobTTL = time.Duration(seconds) * time.Second
		}
	}
	if raw, ok := DBConfigValue(TierLimitsKey); ok {
		var overrides map[string]map[string]int
		if errUnmarshal := json.Unmarshal(raw, &overrides); errUnmarshal == nil && len(overrides) > 0 {
			cfg.TierLimits = overrides
		}
	}

	if raw, ok := DBConfigValue(StatsRedisEnabledKey); ok {
		if enabled, okParse := ParseBool(raw); okParse {
			cfg.StatsRedisEnabled = enabled
		}
	}
	if raw, ok := DBConfigValue(StatsRedisAddrKey); ok {
		if addr, okParse := ParseString(raw); okParse {
			cfg.StatsRedisAddr = addr
		}
	}
	if raw, ok := DBConfigValue(StatsRedisPasswordKey); ok {
		if password, okParse := ParseString(raw); okParse {
			cfg.StatsRedisPassword = password
		}
	}
	if raw, ok := DBConfigValue(StatsRedisDBKey); ok {
		if dbIndex, okParse := ParseNonNegativeInt(raw); okParse {
			cfg.StatsRedisDB = dbIndex
		}
	}
	if raw, ok := DBConfigValue(StatsRedisPrefixKey); ok {
		if prefix, okParse := ParseString(raw); okParse && prefix != "" {
			cfg.StatsRedisPrefix = prefix
		}
	}
	cfg.StatsRedisAddr = strings.TrimSpace(cfg.StatsRedisAddr)
	return cfg
}
