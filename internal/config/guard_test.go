package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
)

func TestLoadGuardConfig_MissingFileUsesDefaults(t *testing.T) {
	missingPath := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := LoadGuardConfig(missingPath)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.RateWindow != limits.DefaultWindow {
		t.Fatalf("expected default rate window, got %v", cfg.RateWindow)
	}
	if cfg.BlockWindow != limits.DefaultBlockWindow {
		t.Fatalf("expected default block window, got %v", cfg.BlockWindow)
	}
	if cfg.RapidFireThreshold != limits.DefaultRapidFireThreshold {
		t.Fatalf("expected default rapid-fire threshold, got %d", cfg.RapidFireThreshold)
	}
}

func TestLoadGuardConfig_Overrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `guard:
  rate-window: 30s
  block-window: 10m
  rapid-fire-threshold: 5
  tier-limits:
    pro:
      general: 200
  per-identity-in-flight:
    free: 2
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadGuardConfig(configPath)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.RateWindow != 30*time.Second {
		t.Fatalf("expected rate window 30s, got %v", cfg.RateWindow)
	}
	if cfg.BlockWindow != 10*time.Minute {
		t.Fatalf("expected block window 10m, got %v", cfg.BlockWindow)
	}
	if cfg.RapidFireThreshold != 5 {
		t.Fatalf("expected rapid-fire threshold 5, got %d", cfg.RapidFireThreshold)
	}
	// untouched values keep defaults
	if cfg.BurstThreshold != limits.DefaultBurstThreshold {
		t.Fatalf("expected default burst threshold, got %d", cfg.BurstThreshold)
	}

	tierLimits, perIdentity, global := cfg.TierLimitMaps()
	if tierLimits[limits.TierPro][limits.CategoryGeneral] != 200 {
		t.Fatalf("expected pro general limit 200, got %d", tierLimits[limits.TierPro][limits.CategoryGeneral])
	}
	if perIdentity[limits.TierFree] != 2 {
		t.Fatalf("expected free per-identity cap 2, got %d", perIdentity[limits.TierFree])
	}
	if global[limits.TierFree] != limits.DefaultGlobalCaps()[limits.TierFree] {
		t.Fatalf("expected default free global cap, got %d", global[limits.TierFree])
	}
}

func TestLoadGuardConfig_UnknownTierRejected(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "guard:\n  tier-limits:\n    platinum:\n      general: 10\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadGuardConfig(configPath); err == nil {
		t.Fatalf("expected error for unknown tier name")
	}
}
