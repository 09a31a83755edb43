package settings

// DB config keys for guard tuning values.
const (
	// RateWindowSecondsKey controls the sliding rate window length in seconds.
	RateWindowSecondsKey = "RATE_WINDOW_SECONDS"
	// BlockWindowSecondsKey controls the abuse block duration in seconds.
	BlockWindowSecondsKey = "BLOCK_WINDOW_SECONDS"
	// RapidFireThresholdKey controls the rapid-fire trigger count.
	RapidFireThresholdKey = "RAPID_FIRE_THRESHOLD"
	// BurstThresholdKey controls the burst trigger count.
	BurstThresholdKey = "BURST_THRESHOLD"
	// StaleJobTTLSecondsKey controls the stale job reclamation age in seconds.
	StaleJobTTLSecondsKey = "STALE_JOB_TTL_SECONDS"
	// TierLimitsKey stores per-tier per-category rate limit overrides as JSON.
	TierLimitsKey = "TIER_LIMITS"
	// StatsRedisEnabledKey toggles Redis-backed stats recording.
	StatsRedisEnabledKey = "STATS_REDIS_ENABLED"
	// StatsRedisAddrKey defines the Redis address for stats recording.
	StatsRedisAddrKey = "STATS_REDIS_ADDR"
	// StatsRedisPasswordKey defines the Redis password for stats recording.
	StatsRedisPasswordKey = "STATS_REDIS_PASSWORD"
	// StatsRedisDBKey defines the Redis DB index for stats recording.
	StatsRedisDBKey = "STATS_REDIS_DB"
	// StatsRedisPrefixKey defines the Redis key prefix for stats recording.
	StatsRedisPrefixKey = "STATS_REDIS_PREFIX"
	// DefaultStatsRedisPrefix is the fallback Redis key prefix.
	DefaultStatsRedisPrefix = "sfg:stats"
)
