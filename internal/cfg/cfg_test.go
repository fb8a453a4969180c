package cfg

import (
	"testing"
	"time"
)

// TestEnvHelpers tests environment parsing helpers
func TestEnvHelpers(t *testing.T) {
	t.Run("GetEnvOrDefault", func(t *testing.T) {
		t.Setenv("CFG_TEST_KEY", "value")
		if got := getEnvOrDefault("CFG_TEST_KEY", "fallback"); got != "value" {
			t.Errorf("Expected value, got %s", got)
		}
		if got := getEnvOrDefault("CFG_TEST_MISSING", "fallback"); got != "fallback" {
			t.Errorf("Expected fallback, got %s", got)
		}
	})

	t.Run("ParseIntEnv", func(t *testing.T) {
		t.Setenv("CFG_TEST_INT", "17")
		got, err := parseIntEnv("CFG_TEST_INT", 5)
		if err != nil || got != 17 {
			t.Errorf("Expected 17, got %d (%v)", got, err)
		}

		got, err = parseIntEnv("CFG_TEST_INT_MISSING", 5)
		if err != nil || got != 5 {
			t.Errorf("Expected default 5, got %d (%v)", got, err)
		}

		t.Setenv("CFG_TEST_INT_BAD", "seventeen")
		if _, err := parseIntEnv("CFG_TEST_INT_BAD", 5); err == nil {
			t.Error("Expected error for non-numeric value")
		}
	})

	t.Run("ParseFloatEnv", func(t *testing.T) {
		t.Setenv("CFG_TEST_FLOAT", "0.1307")
		got, err := parseFloatEnv("CFG_TEST_FLOAT", 0.5)
		if err != nil || got != 0.1307 {
			t.Errorf("Expected 0.1307, got %f (%v)", got, err)
		}
	})

	t.Run("ParseDurationEnv", func(t *testing.T) {
		t.Setenv("CFG_TEST_DUR", "90s")
		got, err := parseDurationEnv("CFG_TEST_DUR", time.Minute)
		if err != nil || got != 90*time.Second {
			t.Errorf("Expected 90s, got %v (%v)", got, err)
		}

		got, err = parseDurationEnv("CFG_TEST_DUR_MISSING", time.Minute)
		if err != nil || got != time.Minute {
			t.Errorf("Expected default 1m, got %v (%v)", got, err)
		}
	})
}

// TestLoadTrainingCfg tests the training section defaults and validation
func TestLoadTrainingCfg(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := loadTrainingCfg()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if cfg.Epochs != 5 || cfg.BatchSize != 64 || cfg.VisSamples != 500 {
			t.Errorf("Unexpected defaults: %+v", cfg)
		}
	})

	t.Run("OverridesFromEnv", func(t *testing.T) {
		t.Setenv("NUM_EPOCHS", "3")
		t.Setenv("NUM_VIS_SAMPLES", "200")

		cfg, err := loadTrainingCfg()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Epochs != 3 || cfg.VisSamples != 200 {
			t.Errorf("Env overrides not applied: %+v", cfg)
		}
	})

	t.Run("RejectsNonPositiveEpochs", func(t *testing.T) {
		t.Setenv("NUM_EPOCHS", "0")
		if _, err := loadTrainingCfg(); err == nil {
			t.Error("Expected error for zero epochs")
		}
	})

	t.Run("RejectsNonPositiveVisSamples", func(t *testing.T) {
		t.Setenv("NUM_VIS_SAMPLES", "-1")
		if _, err := loadTrainingCfg(); err == nil {
			t.Error("Expected error for negative vis samples cap")
		}
	})
}
