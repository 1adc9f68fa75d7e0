package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/segsim/internal/schelling"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Size != 50 {
		t.Errorf("expected size 50, got %d", cfg.Size)
	}
	if cfg.MaxSteps != 100000 {
		t.Errorf("expected 100000 steps, got %d", cfg.MaxSteps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("tiny")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Size != 10 {
		t.Errorf("expected size 10, got %d", cfg.Size)
	}

	cfg.Size = 99
	if Presets["tiny"].Size != 10 {
		t.Error("GetPreset returned the shared preset instead of a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero size", func(c *Config) { c.Size = 0 }},
		{"negative ratio", func(c *Config) { c.RedRatio = -0.2 }},
		{"overfull", func(c *Config) { c.BlueRatio, c.RedRatio = 0.7, 0.7 }},
		{"zero steps", func(c *Config) { c.MaxSteps = 0 }},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, schelling.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	data := "size: 20\nempty_ratio: 0.2\ndelay: 5ms\nseed: 7\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Size != 20 || cfg.EmptyRatio != 0.2 || cfg.Seed != 7 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Delay != 5*time.Millisecond {
		t.Errorf("expected 5ms delay, got %v", cfg.Delay)
	}
	if cfg.BlueRatio != DefaultBlueRatio || cfg.MaxSteps != DefaultMaxSteps {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	cfg := GetPreset("sparse")
	cfg.Seed = 123

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, cfg)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("size: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("seed: 9\nmax_steps: 300\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("tiny")
	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Size != 10 || cfg.Delay != 50*time.Millisecond {
		t.Errorf("preset values should survive: %+v", cfg)
	}
	if cfg.Seed != 9 || cfg.MaxSteps != 300 {
		t.Errorf("file values should win: %+v", cfg)
	}
	if base.MaxSteps != 2000 {
		t.Error("base must not be modified")
	}
}
