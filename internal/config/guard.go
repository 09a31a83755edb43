package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
	"gopkg.in/yaml.v3"
)

// GuardConfig holds the tuning values for the admission and rate-limiting
// core. All fields are overridable in the YAML config file under `guard:`.
type GuardConfig struct {
	RateWindow         time.Duration
	BlockWindow        time.Duration
	RapidFireWindow    time.Duration
	RapidFireThreshold int
	BurstThreshold     int
	StaleJobTTL        time.Duration
	JanitorInterval    time.Duration

	// TierLimits maps tier name -> category name -> requests per window.
	// Entries merge over the built-in defaults.
	TierLimits map[string]map[string]int
	// PerIdentityInFlight maps tier name -> per-identity in-flight job cap.
	PerIdentityInFlight map[string]int
	// GlobalInFlight maps tier name -> system-wide in-flight job cap.
	GlobalInFlight map[string]int
}

// DefaultGuardConfig returns the guard defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RateWindow:         limits.DefaultWindow,
		BlockWindow:        limits.DefaultBlockWindow,
		RapidFireWindow:    limits.DefaultRapidFireWindow,
		RapidFireThreshold: limits.DefaultRapidFireThreshold,
		BurstThreshold:     limits.DefaultBurstThreshold,
		StaleJobTTL:        limits.DefaultStaleJobTTL,
		JanitorInterval:    limits.DefaultJanitorInterval,
	}
}

// LoadGuardConfig loads guard tuning from the YAML config file, falling back
// to defaults for anything omitted. Unknown tier names in the overrides are a
// configuration error at startup.
func LoadGuardConfig(configPath string) (GuardConfig, error) {
	// fileConfig maps the YAML fields needed for guard tuning.
	type guardFileConfig struct {
		RateWindow          Duration                  `yaml:"rate-window"`
		BlockWindow         Duration                  `yaml:"block-window"`
		RapidFireWindow     Duration                  `yaml:"rapid-fire-window"`
		RapidFireThreshold  int                       `yaml:"rapid-fire-threshold"`
		BurstThreshold      int                       `yaml:"burst-threshold"`
		StaleJobTTL         Duration                  `yaml:"stale-job-ttl"`
		JanitorInterval     Duration                  `yaml:"janitor-interval"`
		TierLimits          map[string]map[string]int `yaml:"tier-limits"`
		PerIdentityInFlight map[string]int            `yaml:"per-identity-in-flight"`
		GlobalInFlight      map[string]int            `yaml:"global-in-flight"`
	}
	type fileConfig struct {
		Guard guardFileConfig `yaml:"guard"`
	}

	result := DefaultGuardConfig()

	data, errRead := os.ReadFile(configPath)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return result, nil
		}
		return result, fmt.Errorf("read config file: %w", errRead)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return result, fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	loaded := cfg.Guard
	if loaded.RateWindow.Std() > 0 {
		result.RateWindow = loaded.RateWindow.Std()
	}
	if loaded.BlockWindow.Std() > 0 {
		result.BlockWindow = loaded.BlockWindow.Std()
	}
	if loaded.RapidFireWindow.Std() > 0 {
		result.RapidFireWindow = loaded.RapidFireWindow.Std()
	}
	if loaded.RapidFireThreshold > 0 {
		result.RapidFireThreshold = loaded.RapidFireThreshold
	}
	if loaded.BurstThreshold > 0 {
		result.BurstThreshold = loaded.BurstThreshold
	}
	if loaded.StaleJobTTL.Std() > 0 {
		result.StaleJobTTL = loaded.StaleJobTTL.Std()
	}
	if loaded.JanitorInterval.Std() > 0 {
		result.JanitorInterval = loaded.JanitorInterval.Std()
	}
	result.TierLimits = loaded.TierLimits
	result.PerIdentityInFlight = loaded.PerIdentityInFlight
	result.GlobalInFlight = loaded.GlobalInFlight

	if errValidate := validateTierNames(result); errValidate != nil {
		return result, errValidate
	}
	return result, nil
}

// validateTierNames rejects overrides that name tiers outside the closed set.
func validateTierNames(cfg GuardConfig) error {
	check := func(section string, names map[string]struct{}) error {
		for name := range names {
			if _, ok := limits.ParseTier(name); !ok {
				return fmt.Errorf("config: %s: unknown tier %q", section, name)
			}
		}
		return nil
	}

	names := make(map[string]struct{})
	for name := range cfg.TierLimits {
		names[strings.TrimSpace(name)] = struct{}{}
	}
	if errCheck := check("tier-limits", names); errCheck != nil {
		return errCheck
	}

	names = make(map[string]struct{})
	for name := range cfg.PerIdentityInFlight {
		names[strings.TrimSpace(name)] = struct{}{}
	}
	if errCheck := check("per-identity-in-flight", names); errCheck != nil {
		return errCheck
	}

	names = make(map[string]struct{})
	for name := range cfg.GlobalInFlight {
		names[strings.TrimSpace(name)] = struct{}{}
	}
	return check("global-in-flight", names)
}

// TierLimitMaps converts the config overrides into limits-typed maps merged
// over the defaults.
func (c GuardConfig) TierLimitMaps() (map[limits.Tier]map[limits.Category]int, map[limits.Tier]int, map[limits.Tier]int) {
	tierLimits := limits.DefaultTierLimits()
	for name, byCategory := range c.TierLimits {
		tier, ok := limits.ParseTier(name)
		if !ok {
			continue
		}
		for category, limit := range byCategory {
			tierLimits[tier][limits.Category(strings.TrimSpace(category))] = limit
		}
	}

	perIdentity := limits.DefaultPerIdentityCaps()
	for name, capValue := range c.PerIdentityInFlight {
		if tier, ok := limits.ParseTier(name); ok {
			perIdentity[tier] = capValue
		}
	}

	global := limits.DefaultGlobalCaps()
	for name, capValue := range c.GlobalInFlight {
		if tier, ok := limits.ParseTier(name); ok {
			global[tier] = capValue
		}
	}
	return tierLimits, perIdentity, global
}
