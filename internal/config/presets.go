package config

import (
	"sort"
	"time"
)

var Presets = map[string]*Config{
	"classic": {
		Size: 50, BlueRatio: 0.45, RedRatio: 0.45, EmptyRatio: 0.1,
		MaxSteps: 100000, Delay: time.Millisecond,
	},
	"crowded": {
		Size: 40, BlueRatio: 0.48, RedRatio: 0.48, EmptyRatio: 0.04,
		MaxSteps: 200000, Delay: time.Millisecond,
	},
	"sparse": {
		Size: 40, BlueRatio: 0.3, RedRatio: 0.3, EmptyRatio: 0.4,
		MaxSteps: 50000, Delay: time.Millisecond,
	},
	"lopsided": {
		Size: 40, BlueRatio: 0.7, RedRatio: 0.2, EmptyRatio: 0.1,
		MaxSteps: 100000, Delay: time.Millisecond,
	},
	"tiny": {
		Size: 10, BlueRatio: 0.4, RedRatio: 0.4, EmptyRatio: 0.2,
		MaxSteps: 2000, Delay: 50 * time.Millisecond,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
