package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Preferences holds the user volume levels, linear in (0,1]
type Preferences struct {
	Master   float64
	Music    float64
	Ambiance float64
}

// DefaultPreferences returns the configured default volume levels
func (p PreferencesConfig) DefaultPreferences() Preferences {
	return Preferences{
		Master:   p.DefaultMasterVolume,
		Music:    p.DefaultMusicVolume,
		Ambiance: p.DefaultAmbianceVolume,
	}
}

// Clamp forces every level into [MinPrefsVolume, 1].
// The lower bound keeps decibel conversion away from log(0).
func (p Preferences) Clamp() Preferences {
	return Preferences{
		Master:   clampPref(p.Master),
		Music:    clampPref(p.Music),
		Ambiance: clampPref(p.Ambiance),
	}
}

func clampPref(v float64) float64 {
	if v < MinPrefsVolume || v != v {
		return MinPrefsVolume
	}
	if v > 1 {
		return 1
	}
	return v
}

// preferencesDocument is the on-disk layout; pointers distinguish absent keys from zero
type preferencesDocument struct {
	MasterVolume   *float64 `yaml:"master_volume,omitempty"`
	MusicVolume    *float64 `yaml:"music_volume,omitempty"`
	AmbianceVolume *float64 `yaml:"ambiance_volume,omitempty"`
}

// PreferencesFile persists Preferences as a small YAML key-value file
type PreferencesFile struct {
	Path string
}

// NewPreferencesFile creates a store backed by path
func NewPreferencesFile(path string) *PreferencesFile {
	return &PreferencesFile{Path: path}
}

// Load reads the stored levels. Absent file or absent keys yield the defaults;
// a missing file is not an error.
func (f *PreferencesFile) Load(defaults Preferences) (Preferences, error) {
	prefs := defaults

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("failed to read preferences: %w", err)
	}

	var doc preferencesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return prefs, fmt.Errorf("failed to parse preferences: %w", err)
	}

	if doc.MasterVolume != nil {
		prefs.Master = *doc.MasterVolume
	}
	if doc.MusicVolume != nil {
		prefs.Music = *doc.MusicVolume
	}
	if doc.AmbianceVolume != nil {
		prefs.Ambiance = *doc.AmbianceVolume
	}

	return prefs.Clamp(), nil
}

// Save writes the levels, creating the parent directory if needed
func (f *PreferencesFile) Save(prefs Preferences) error {
	prefs = prefs.Clamp()
	doc := preferencesDocument{
		MasterVolume:   &prefs.Master,
		MusicVolume:    &prefs.Music,
		AmbianceVolume: &prefs.Ambiance,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to serialize preferences: %w", err)
	}

	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create preferences directory: %w", err)
		}
	}

	if err := os.WriteFile(f.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
