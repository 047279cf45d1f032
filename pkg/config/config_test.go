package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero tracks", func(c *Config) { c.Generator.Tracks = 0 }, "generator.tracks"},
		{"nine tracks", func(c *Config) { c.Generator.Tracks = 9 }, "generator.tracks"},
		{"negative delay", func(c *Config) { c.Generator.DelayBetweenAmbiance = -1 }, "delay_between_ambiance"},
		{"negative range", func(c *Config) { c.Generator.DelayRange = -0.1 }, "delay_range"},
		{"fade in above one", func(c *Config) { c.Generator.FadeInPercentage = 1.5 }, "fade_in_percentage"},
		{"fade out negative", func(c *Config) { c.Generator.FadeOutPercentage = -0.2 }, "fade_out_percentage"},
		{"noise depth", func(c *Config) { c.Generator.NoiseDepth = 2 }, "noise_depth"},
		{"smoothing", func(c *Config) { c.Generator.Smoothing = 0 }, "smoothing"},
		{"backend", func(c *Config) { c.Audio.Backend = "jack" }, "audio.backend"},
		{"resample quality", func(c *Config) { c.Audio.ResampleQuality = 0 }, "resample_quality"},
		{"zero master pref", func(c *Config) { c.Preferences.DefaultMasterVolume = 0 }, "default_master_volume"},
		{"clip volume", func(c *Config) {
			v := 1.5
			c.Catalog.Ambiance = []ClipConfig{{File: "a.wav", Volume: &v}}
		}, "catalog.ambiance[0].volume"},
		{"negative priority", func(c *Config) {
			p := -1
			c.Catalog.Ambiance = []ClipConfig{{File: "a.wav", Priority: &p}}
		}, "catalog.ambiance[0].priority"},
		{"file and synth", func(c *Config) {
			c.Catalog.Music = []ClipConfig{{File: "a.wav", Synth: SynthDrone, Duration: 1}}
		}, "catalog.music[0]"},
		{"unknown synth", func(c *Config) {
			c.Catalog.Ambiance = []ClipConfig{{Synth: "choir", Duration: 1}}
		}, "synth"},
		{"synth without duration", func(c *Config) {
			c.Catalog.Ambiance = []ClipConfig{{Synth: SynthWind}}
		}, "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error does not wrap ErrInvalidConfig: %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %q", err, tt.field)
			}
		})
	}
}

func TestClipConfigDefaults(t *testing.T) {
	c := ClipConfig{File: "rain.wav"}
	if c.EffectiveVolume() != DefaultClipVolume {
		t.Errorf("volume default = %v", c.EffectiveVolume())
	}
	if c.EffectivePriority() != DefaultClipPriority {
		t.Errorf("priority default = %v", c.EffectivePriority())
	}
	if c.DisplayName() != "rain.wav" {
		t.Errorf("display name = %q", c.DisplayName())
	}

	zero := 0
	c.Priority = &zero
	if c.EffectivePriority() != 0 {
		t.Errorf("explicit zero priority lost")
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ambiance.yaml")
	doc := `
generator:
  tracks: 4
  noise_volume_variation: false
audio:
  backend: headless
catalog:
  ambiance:
    - name: rain
      file: sounds/rain.wav
      volume: 0.8
      priority: 5
    - synth: wind
      duration: 12
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Generator.Tracks != 4 || cfg.Generator.NoiseVolumeVariation {
		t.Errorf("overrides not applied: %+v", cfg.Generator)
	}
	if cfg.Generator.FadeInPercentage != 0.2 {
		t.Errorf("default fade in lost: %v", cfg.Generator.FadeInPercentage)
	}
	if len(cfg.Catalog.Ambiance) != 2 {
		t.Fatalf("catalog entries = %d, want 2", len(cfg.Catalog.Ambiance))
	}
	if got := cfg.Catalog.Ambiance[0].EffectivePriority(); got != 5 {
		t.Errorf("priority = %d, want 5", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if cfg == nil || cfg.Generator.Tracks != 2 {
		t.Errorf("defaults not returned: %+v", cfg)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Generator.Tracks = 6
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Generator.Tracks != 6 {
		t.Errorf("tracks = %d, want 6", loaded.Generator.Tracks)
	}
}
