package engine

import (
	"math"
	"sync"

	"ambiance/internal/logger"
	"ambiance/pkg/config"
)

// PreferencesStore persists user volume levels between sessions
type PreferencesStore interface {
	Load(defaults config.Preferences) (config.Preferences, error)
	Save(prefs config.Preferences) error
}

// VolumeMixer receives linear volume levels for the master output and each bus
type VolumeMixer interface {
	SetMasterVolume(volume float64)
	SetBusVolume(bus Bus, volume float64)
}

// VolumeSettings owns the user volume preferences for the process. It loads
// them at startup, pushes them to the mixer and saves them at shutdown.
type VolumeSettings struct {
	mu       sync.Mutex
	store    PreferencesStore
	mixer    VolumeMixer
	defaults config.Preferences
	prefs    config.Preferences
	log      *logger.Logger
}

// NewVolumeSettings creates settings holding defaults until Load is called.
// store and mixer may be nil.
func NewVolumeSettings(store PreferencesStore, mixer VolumeMixer, defaults config.Preferences, log *logger.Logger) *VolumeSettings {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &VolumeSettings{
		store:    store,
		mixer:    mixer,
		defaults: defaults.Clamp(),
		prefs:    defaults.Clamp(),
		log:      log,
	}
}

// Load reads stored preferences and applies them. Read failures keep the
// defaults and are only logged.
func (v *VolumeSettings) Load() config.Preferences {
	v.mu.Lock()
	defer v.mu.Unlock()

	prefs := v.defaults
	if v.store != nil {
		loaded, err := v.store.Load(v.defaults)
		if err != nil {
			v.log.Warnf("failed to load volume preferences, using defaults: %v", err)
		} else {
			prefs = loaded
		}
	}
	v.prefs = prefs.Clamp()
	v.applyLocked()
	return v.prefs
}

// Save writes the current preferences to the store
func (v *VolumeSettings) Save() error {
	v.mu.Lock()
	prefs := v.prefs
	v.mu.Unlock()

	if v.store == nil {
		return nil
	}
	return v.store.Save(prefs)
}

// Preferences returns the current levels
func (v *VolumeSettings) Preferences() config.Preferences {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.prefs
}

// SetMasterVolume sets the master level (linear, clamped to (0,1])
func (v *VolumeSettings) SetMasterVolume(volume float64) {
	v.update(func(p *config.Preferences) { p.Master = volume })
}

// SetMusicVolume sets the music bus level (linear, clamped to (0,1])
func (v *VolumeSettings) SetMusicVolume(volume float64) {
	v.update(func(p *config.Preferences) { p.Music = volume })
}

// SetAmbianceVolume sets the ambiance bus level (linear, clamped to (0,1])
func (v *VolumeSettings) SetAmbianceVolume(volume float64) {
	v.update(func(p *config.Preferences) { p.Ambiance = volume })
}

func (v *VolumeSettings) update(fn func(*config.Preferences)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.prefs)
	v.prefs = v.prefs.Clamp()
	v.applyLocked()
}

func (v *VolumeSettings) applyLocked() {
	if v.mixer == nil {
		return
	}
	v.mixer.SetMasterVolume(v.prefs.Master)
	v.mixer.SetBusVolume(BusMusic, v.prefs.Music)
	v.mixer.SetBusVolume(BusAmbiance, v.prefs.Ambiance)
}

// LinearToDecibels converts a linear level to decibels (20*log10).
// Levels at or below zero map to -80 dB.
func LinearToDecibels(volume float64) float64 {
	if volume <= 0 {
		return -80
	}
	return 20 * math.Log10(volume)
}

// DecibelsToLinear converts decibels back to a linear level
func DecibelsToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
