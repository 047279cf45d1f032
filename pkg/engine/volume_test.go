package engine

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"ambiance/pkg/config"
)

type memoryStore struct {
	prefs   *config.Preferences
	loadErr error
	saved   []config.Preferences
}

func (m *memoryStore) Load(defaults config.Preferences) (config.Preferences, error) {
	if m.loadErr != nil {
		return defaults, m.loadErr
	}
	if m.prefs == nil {
		return defaults, nil
	}
	return *m.prefs, nil
}

func (m *memoryStore) Save(p config.Preferences) error {
	m.saved = append(m.saved, p)
	return nil
}

type recordingMixer struct {
	master float64
	buses  map[Bus]float64
}

func newRecordingMixer() *recordingMixer {
	return &recordingMixer{buses: make(map[Bus]float64)}
}

func (r *recordingMixer) SetMasterVolume(v float64)     { r.master = v }
func (r *recordingMixer) SetBusVolume(b Bus, v float64) { r.buses[b] = v }

func TestVolumeSettingsLoadAppliesStoredLevels(t *testing.T) {
	store := &memoryStore{prefs: &config.Preferences{Master: 0.5, Music: 0.25, Ambiance: 2}}
	mixer := newRecordingMixer()
	v := NewVolumeSettings(store, mixer, config.Preferences{Master: 1, Music: 1, Ambiance: 1}, nil)

	got := v.Load()
	want := config.Preferences{Master: 0.5, Music: 0.25, Ambiance: 1}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
	if mixer.master != 0.5 || mixer.buses[BusMusic] != 0.25 || mixer.buses[BusAmbiance] != 1 {
		t.Errorf("mixer = %v %v", mixer.master, mixer.buses)
	}
}

func TestVolumeSettingsLoadFailureKeepsDefaults(t *testing.T) {
	store := &memoryStore{loadErr: errors.New("disk on fire")}
	defaults := config.Preferences{Master: 0.8, Music: 0.6, Ambiance: 0.4}
	v := NewVolumeSettings(store, newRecordingMixer(), defaults, nil)

	if got := v.Load(); got != defaults {
		t.Errorf("Load = %+v, want defaults %+v", got, defaults)
	}
}

func TestVolumeSettingsSettersClampAndSave(t *testing.T) {
	store := &memoryStore{}
	mixer := newRecordingMixer()
	v := NewVolumeSettings(store, mixer, config.Preferences{Master: 1, Music: 1, Ambiance: 1}, nil)
	v.Load()

	v.SetMasterVolume(0.3)
	v.SetMusicVolume(-4)
	v.SetAmbianceVolume(7)

	p := v.Preferences()
	if p.Master != 0.3 || p.Music != config.MinPrefsVolume || p.Ambiance != 1 {
		t.Fatalf("preferences = %+v", p)
	}
	if mixer.master != 0.3 || mixer.buses[BusMusic] != config.MinPrefsVolume {
		t.Errorf("mixer not updated: %v %v", mixer.master, mixer.buses)
	}

	if err := v.Save(); err != nil {
		t.Fatal(err)
	}
	if len(store.saved) != 1 || store.saved[0] != p {
		t.Errorf("saved = %+v", store.saved)
	}
}

func TestVolumeSettingsWithoutStoreOrMixer(t *testing.T) {
	v := NewVolumeSettings(nil, nil, config.Preferences{Master: 1, Music: 1, Ambiance: 1}, nil)
	v.Load()
	v.SetMasterVolume(0.5)
	if err := v.Save(); err != nil {
		t.Errorf("Save without store = %v", err)
	}
}

func TestVolumeSettingsPersistAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	defaults := config.Preferences{Master: 1, Music: 1, Ambiance: 1}

	first := NewVolumeSettings(config.NewPreferencesFile(path), nil, defaults, nil)
	first.Load()
	first.SetAmbianceVolume(0.35)
	if err := first.Save(); err != nil {
		t.Fatal(err)
	}

	second := NewVolumeSettings(config.NewPreferencesFile(path), nil, defaults, nil)
	if got := second.Load(); got.Ambiance != 0.35 || got.Master != 1 {
		t.Errorf("reloaded preferences = %+v", got)
	}
}

func TestDecibelConversion(t *testing.T) {
	tests := []struct {
		linear, db float64
	}{
		{1, 0},
		{0.1, -20},
		{0.01, -40},
	}
	for _, tt := range tests {
		if got := LinearToDecibels(tt.linear); math.Abs(got-tt.db) > 1e-9 {
			t.Errorf("LinearToDecibels(%v) = %v, want %v", tt.linear, got, tt.db)
		}
		if got := DecibelsToLinear(tt.db); math.Abs(got-tt.linear) > 1e-9 {
			t.Errorf("DecibelsToLinear(%v) = %v, want %v", tt.db, got, tt.linear)
		}
	}
	if got := LinearToDecibels(0); got != -80 {
		t.Errorf("LinearToDecibels(0) = %v, want -80", got)
	}
}
