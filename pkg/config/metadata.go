package config

import (
	"fmt"
	"strings"
)

// Procedural sources a catalog entry may name instead of a file
const (
	SynthAmbient = "ambient"
	SynthWind    = "wind"
	SynthWhisper = "whisper"
	SynthDrone   = "drone"
)

// CatalogConfig lists the clips available to the generator, in catalog order
type CatalogConfig struct {
	Ambiance []ClipConfig `yaml:"ambiance"`
	Music    []ClipConfig `yaml:"music"`
}

// ClipConfig describes one catalog entry.
// Exactly one of File or Synth must be set.
type ClipConfig struct {
	Name     string   `yaml:"name"`
	File     string   `yaml:"file"`
	Synth    string   `yaml:"synth"`
	Duration float64  `yaml:"duration"` // seconds, synth only
	Seed     int64    `yaml:"seed"`     // synth only
	Volume   *float64 `yaml:"volume"`   // defaults to 1
	Priority *int     `yaml:"priority"` // defaults to 1
}

// Default clip metadata when a catalog entry omits it
const (
	DefaultClipVolume   = 1.0
	DefaultClipPriority = 1
)

// EffectiveVolume returns the clip volume multiplier, applying the default
func (c ClipConfig) EffectiveVolume() float64 {
	if c.Volume == nil {
		return DefaultClipVolume
	}
	return *c.Volume
}

// EffectivePriority returns the clip priority weight, applying the default
func (c ClipConfig) EffectivePriority() int {
	if c.Priority == nil {
		return DefaultClipPriority
	}
	return *c.Priority
}

// DisplayName returns Name, falling back to the file or synth source
func (c ClipConfig) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.File != "":
		return c.File
	default:
		return "synth:" + c.Synth
	}
}

func (c CatalogConfig) validate() []error {
	var errs []error
	check := func(list string, entries []ClipConfig) {
		for i, e := range entries {
			where := fmt.Sprintf("catalog.%s[%d]", list, i)
			if (e.File == "") == (e.Synth == "") {
				errs = append(errs, fmt.Errorf("%w: %s must set exactly one of file or synth", ErrInvalidConfig, where))
			}
			if e.Synth != "" && !isSynth(e.Synth) {
				errs = append(errs, fmt.Errorf("%w: %s.synth %q is not one of %s", ErrInvalidConfig, where, e.Synth,
					strings.Join([]string{SynthAmbient, SynthWind, SynthWhisper, SynthDrone}, ", ")))
			}
			if e.Synth != "" && e.Duration <= 0 {
				errs = append(errs, fmt.Errorf("%w: %s.duration must be > 0 for synth clips, got %v", ErrInvalidConfig, where, e.Duration))
			}
			if v := e.EffectiveVolume(); v < 0 || v > MaxClipVolume {
				errs = append(errs, fmt.Errorf("%w: %s.volume must be in [0,%v], got %v", ErrInvalidConfig, where, MaxClipVolume, v))
			}
			if p := e.EffectivePriority(); p < 0 {
				errs = append(errs, fmt.Errorf("%w: %s.priority must be >= 0, got %d", ErrInvalidConfig, where, p))
			}
		}
	}
	check("ambiance", c.Ambiance)
	check("music", c.Music)
	return errs
}

func isSynth(s string) bool {
	switch s {
	case SynthAmbient, SynthWind, SynthWhisper, SynthDrone:
		return true
	}
	return false
}
