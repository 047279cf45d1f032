package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Limits enforced by Validate
const (
	MinTracks      = 1
	MaxTracks      = 8
	MaxClipVolume  = 1.2
	MinPrefsVolume = 0.0001
)

// Config represents the main configuration
type Config struct {
	Generator   GeneratorConfig   `yaml:"generator"`
	Audio       AudioConfig       `yaml:"audio"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Engine      EngineConfig      `yaml:"engine"`
	Log         LogConfig         `yaml:"log"`
}

// GeneratorConfig holds the playback tunables of the ambiance generator
type GeneratorConfig struct {
	Tracks               int     `yaml:"tracks"`                 // concurrent ambiance tracks, 1-8
	DelayBetweenAmbiance float64 `yaml:"delay_between_ambiance"` // mean gap after a clip, seconds
	DelayRange           float64 `yaml:"delay_range"`            // +/- jitter on the gap, seconds
	FadeInPercentage     float64 `yaml:"fade_in_percentage"`     // fraction of clip length
	FadeOutPercentage    float64 `yaml:"fade_out_percentage"`    // fraction of clip length
	NoiseVolumeVariation bool    `yaml:"noise_volume_variation"`
	NoiseDepth           float64 `yaml:"noise_depth"`
	NoiseSpeed           float64 `yaml:"noise_speed"`
	Smoothing            float64 `yaml:"smoothing"`
	InitialDelay         float64 `yaml:"initial_delay"`
	AmbianceVolume       float64 `yaml:"ambiance_volume"` // multiplier applied to every ambiance clip
	MusicVolume          float64 `yaml:"music_volume"`
	Seed                 int64   `yaml:"seed"` // 0 means random
}

// AudioConfig contains output device configuration
type AudioConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Backend         string `yaml:"backend"` // portaudio, oto, headless
	SampleRate      int    `yaml:"sample_rate"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	ResampleQuality int    `yaml:"resample_quality"`
}

// PreferencesConfig configures the persisted user volume preferences
type PreferencesConfig struct {
	Path                  string  `yaml:"path"`
	DefaultMasterVolume   float64 `yaml:"default_master_volume"`
	DefaultMusicVolume    float64 `yaml:"default_music_volume"`
	DefaultAmbianceVolume float64 `yaml:"default_ambiance_volume"`
}

// EngineConfig contains host loop configuration
type EngineConfig struct {
	FrameRate int `yaml:"framerate"`
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Backend names accepted by AudioConfig.Backend
const (
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
	BackendHeadless  = "headless"
)

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Tracks:               2,
			DelayBetweenAmbiance: 5.0,
			DelayRange:           2.0,
			FadeInPercentage:     0.2,
			FadeOutPercentage:    0.2,
			NoiseVolumeVariation: true,
			NoiseDepth:           0.3,
			NoiseSpeed:           0.02,
			Smoothing:            6.0,
			InitialDelay:         1.0,
			AmbianceVolume:       1.0,
			MusicVolume:          1.0,
			Seed:                 0,
		},
		Audio: AudioConfig{
			Enabled:         true,
			Backend:         BackendPortAudio,
			SampleRate:      44100,
			FramesPerBuffer: 1024,
			ResampleQuality: 4,
		},
		Preferences: PreferencesConfig{
			Path:                  "preferences.yaml",
			DefaultMasterVolume:   1.0,
			DefaultMusicVolume:    1.0,
			DefaultAmbianceVolume: 1.0,
		},
		Engine: EngineConfig{
			FrameRate: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads the configuration from a file.
// A missing or malformed file still yields the defaults alongside the error.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, fmt.Errorf("config file not found, using defaults: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("error parsing config: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate enforces the documented ranges on every tunable
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, v ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, v...)...))
	}

	g := c.Generator
	if g.Tracks < MinTracks || g.Tracks > MaxTracks {
		bad("generator.tracks must be in [%d,%d], got %d", MinTracks, MaxTracks, g.Tracks)
	}
	if g.DelayBetweenAmbiance < 0 {
		bad("generator.delay_between_ambiance must be >= 0, got %v", g.DelayBetweenAmbiance)
	}
	if g.DelayRange < 0 {
		bad("generator.delay_range must be >= 0, got %v", g.DelayRange)
	}
	if !inUnit(g.FadeInPercentage) {
		bad("generator.fade_in_percentage must be in [0,1], got %v", g.FadeInPercentage)
	}
	if !inUnit(g.FadeOutPercentage) {
		bad("generator.fade_out_percentage must be in [0,1], got %v", g.FadeOutPercentage)
	}
	if !inUnit(g.NoiseDepth) {
		bad("generator.noise_depth must be in [0,1], got %v", g.NoiseDepth)
	}
	if g.NoiseSpeed < 0 {
		bad("generator.noise_speed must be >= 0, got %v", g.NoiseSpeed)
	}
	if g.Smoothing <= 0 {
		bad("generator.smoothing must be > 0, got %v", g.Smoothing)
	}
	if g.InitialDelay < 0 {
		bad("generator.initial_delay must be >= 0, got %v", g.InitialDelay)
	}
	if g.AmbianceVolume < 0 || g.AmbianceVolume > MaxClipVolume {
		bad("generator.ambiance_volume must be in [0,%v], got %v", MaxClipVolume, g.AmbianceVolume)
	}
	if !inUnit(g.MusicVolume) {
		bad("generator.music_volume must be in [0,1], got %v", g.MusicVolume)
	}

	a := c.Audio
	switch a.Backend {
	case BackendPortAudio, BackendOto, BackendHeadless:
	default:
		bad("audio.backend must be one of %s, %s, %s, got %q", BackendPortAudio, BackendOto, BackendHeadless, a.Backend)
	}
	if a.SampleRate <= 0 {
		bad("audio.sample_rate must be > 0, got %d", a.SampleRate)
	}
	if a.FramesPerBuffer <= 0 {
		bad("audio.frames_per_buffer must be > 0, got %d", a.FramesPerBuffer)
	}
	if a.ResampleQuality < 1 || a.ResampleQuality > 64 {
		bad("audio.resample_quality must be in [1,64], got %d", a.ResampleQuality)
	}

	p := c.Preferences
	for _, pv := range []struct {
		name string
		v    float64
	}{
		{"default_master_volume", p.DefaultMasterVolume},
		{"default_music_volume", p.DefaultMusicVolume},
		{"default_ambiance_volume", p.DefaultAmbianceVolume},
	} {
		if pv.v <= 0 || pv.v > 1 {
			bad("preferences.%s must be in (0,1], got %v", pv.name, pv.v)
		}
	}

	if c.Engine.FrameRate < 0 {
		bad("engine.framerate must be >= 0, got %d", c.Engine.FrameRate)
	}

	errs = append(errs, c.Catalog.validate()...)

	return errors.Join(errs...)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
